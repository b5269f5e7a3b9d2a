package schema

import (
	"fmt"
	"sort"
)

// FieldKind describes how a token is decoded.
type FieldKind int

const (
	Float FieldKind = iota
	Int
	String
)

func (k FieldKind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SentinelPolicy declares which decoded numeric values mean "no data" for a
// field. The zero value accepts everything.
type SentinelPolicy struct {
	// Min/Max bound the plausible range. Values outside decode to null.
	// Both zero means unbounded.
	Min float64
	Max float64
	// Sentinels are exact magic values reserved by the station firmware.
	Sentinels []float64
}

// Rejects reports whether v is a sentinel or out of the plausible range.
func (p SentinelPolicy) Rejects(v float64) bool {
	for _, s := range p.Sentinels {
		if v == s {
			return true
		}
	}
	if p.Min == 0 && p.Max == 0 {
		return false
	}
	return v < p.Min || v > p.Max
}

// FieldDescriptor maps a named field to its token position. Descriptors are
// data, not code: an upstream layout change means registering a new table
// version, never renumbering constants in the decoder.
type FieldDescriptor struct {
	Name     string
	Index    int
	Unit     string
	Kind     FieldKind
	Sentinel SentinelPolicy
}

// Table is one immutable schema version of the upstream packet.
type Table struct {
	Version string
	Fields  []FieldDescriptor

	byName map[string]*FieldDescriptor
}

// NewTable builds a table and validates descriptor uniqueness.
func NewTable(version string, fields []FieldDescriptor) (*Table, error) {
	t := &Table{
		Version: version,
		Fields:  fields,
		byName:  make(map[string]*FieldDescriptor, len(fields)),
	}
	for i := range fields {
		f := &t.Fields[i]
		if f.Index < 0 {
			return nil, fmt.Errorf("schema %s: field %q has negative index %d", version, f.Name, f.Index)
		}
		if _, dup := t.byName[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", version, f.Name)
		}
		t.byName[f.Name] = f
	}
	return t, nil
}

// Field returns the descriptor for name.
func (t *Table) Field(name string) (FieldDescriptor, bool) {
	f, ok := t.byName[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return *f, true
}

// Names returns all field names in index order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Fields))
	order := make([]FieldDescriptor, len(t.Fields))
	copy(order, t.Fields)
	sort.Slice(order, func(i, j int) bool { return order[i].Index < order[j].Index })
	for i, f := range order {
		names[i] = f.Name
	}
	return names
}

var registry = map[string]*Table{}

func register(t *Table, err error) *Table {
	if err != nil {
		panic(err)
	}
	registry[t.Version] = t
	return t
}

// Lookup returns a registered schema version.
func Lookup(version string) (*Table, error) {
	t, ok := registry[version]
	if !ok {
		return nil, fmt.Errorf("unknown packet schema version %q", version)
	}
	return t, nil
}

// Versions lists registered schema versions.
func Versions() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
