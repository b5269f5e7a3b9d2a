package decoder

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"weather-telemetry/internal/schema"
)

// ErrEmptyPacket indicates the raw blob held no tokens at all.
var ErrEmptyPacket = errors.New("decoder: empty packet")

// Value is one decoded field. Valid=false is the explicit "no value" marker:
// an absent, unparseable, or sentinel token never decodes to zero.
type Value struct {
	Kind  schema.FieldKind
	Float float64
	Int   int64
	Str   string
	Valid bool
}

// Reading is one decoded packet, immutable after creation.
type Reading struct {
	CapturedAt    time.Time
	SchemaVersion string

	fields map[string]Value
	gaps   int
}

// Float returns a named float field. ok is false for "no value".
func (r *Reading) Float(name string) (float64, bool) {
	v, present := r.fields[name]
	if !present || !v.Valid || v.Kind != schema.Float {
		return 0, false
	}
	return v.Float, true
}

// Int returns a named integer field.
func (r *Reading) Int(name string) (int64, bool) {
	v, present := r.fields[name]
	if !present || !v.Valid || v.Kind != schema.Int {
		return 0, false
	}
	return v.Int, true
}

// Str returns a named string field.
func (r *Reading) Str(name string) (string, bool) {
	v, present := r.fields[name]
	if !present || !v.Valid || v.Kind != schema.String {
		return "", false
	}
	return v.Str, true
}

// Value returns the raw decoded value for name.
func (r *Reading) Value(name string) (Value, bool) {
	v, present := r.fields[name]
	return v, present
}

// Gaps reports how many fields decoded to "no value".
func (r *Reading) Gaps() int { return r.gaps }

// NullableFloat adapts a float field to a *float64 for storage, nil on gap.
func (r *Reading) NullableFloat(name string) *float64 {
	if v, ok := r.Float(name); ok {
		return &v
	}
	return nil
}

// Decode maps the whitespace-delimited packet to a Reading using table.
// Decoding is total: every descriptor resolves to a typed value or to the
// null marker, and an index beyond the token count is a gap, not an error.
func Decode(raw string, table *schema.Table, capturedAt time.Time) (*Reading, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return nil, ErrEmptyPacket
	}

	r := &Reading{
		CapturedAt:    capturedAt,
		SchemaVersion: table.Version,
		fields:        make(map[string]Value, len(table.Fields)),
	}

	for _, f := range table.Fields {
		v := decodeField(tokens, f)
		if !v.Valid {
			r.gaps++
		}
		r.fields[f.Name] = v
	}
	return r, nil
}

func decodeField(tokens []string, f schema.FieldDescriptor) Value {
	v := Value{Kind: f.Kind}
	if f.Index >= len(tokens) {
		return v
	}
	token := tokens[f.Index]

	switch f.Kind {
	case schema.String:
		v.Str = token
		v.Valid = token != ""
	case schema.Float:
		parsed, err := strconv.ParseFloat(token, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return v
		}
		if f.Sentinel.Rejects(parsed) {
			return v
		}
		v.Float = parsed
		v.Valid = true
	case schema.Int:
		parsed, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			// Some firmware revisions emit integers as "12.0".
			f64, ferr := strconv.ParseFloat(token, 64)
			if ferr != nil || f64 != math.Trunc(f64) {
				return v
			}
			parsed = int64(f64)
		}
		if f.Sentinel.Rejects(float64(parsed)) {
			return v
		}
		v.Int = parsed
		v.Valid = true
	}
	return v
}
