// Package resample prepares irregular weather series for rendering: it
// sanitizes raw points, decimates oversized series, applies a robust
// outlier-resistant smoothing filter, and chooses tick placement and Y
// domains per time range. Every step is a pure transform; nothing here
// holds shared state.
package resample

import (
	"math"
	"sort"
	"time"
)

// Point is one sample: a millisecond timestamp and one value per column
// (a single column for intraday series, max/avg/min for rollup series).
// NaN marks a null value.
type Point struct {
	TS     int64
	Values []float64
}

// Level selects smoothing strength.
type Level string

const (
	LevelOff  Level = "off"
	LevelLow  Level = "low"
	LevelAuto Level = "auto"
	LevelMed  Level = "med"
	LevelHigh Level = "high"
)

// ParseLevel maps a request parameter to a Level, defaulting to auto.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelOff, LevelLow, LevelAuto, LevelMed, LevelHigh:
		return Level(s)
	default:
		return LevelAuto
	}
}

// Range is the selected time range bucket.
type Range string

const (
	RangeToday Range = "today"
	Range7d    Range = "7"
	Range30d   Range = "30"
	Range90d   Range = "90"
	Range180d  Range = "180"
	Range365d  Range = "365"
	Range730d  Range = "730"
	Range1825d Range = "1825"
	Range3650d Range = "3650"
	RangeAll   Range = "all"
)

// dayRanges are the ranges labelled with one tick per calendar day.
var dayRanges = map[Range]bool{
	Range7d: true, Range30d: true, Range90d: true, Range180d: true, Range365d: true,
}

// Days returns the range's window in days, or (0, false) for today/all.
func (r Range) Days() (int, bool) {
	switch r {
	case Range7d:
		return 7, true
	case Range30d:
		return 30, true
	case Range90d:
		return 90, true
	case Range180d:
		return 180, true
	case Range365d:
		return 365, true
	case Range730d:
		return 730, true
	case Range1825d:
		return 1825, true
	case Range3650d:
		return 3650, true
	default:
		return 0, false
	}
}

// ParseRange maps a request parameter to a Range, defaulting to today.
func ParseRange(s string) Range {
	switch Range(s) {
	case RangeToday, Range7d, Range30d, Range90d, Range180d, Range365d,
		Range730d, Range1825d, Range3650d, RangeAll:
		return Range(s)
	default:
		return RangeToday
	}
}

// MaxPoints bounds the rendered series size. Beyond it, Decimate keeps a
// deterministic stride.
const MaxPoints = 2000

// nearlyConstantEps is the spread below which a column counts as flat and
// smoothing is suppressed, so flat data is never given fake variation.
const nearlyConstantEps = 1e-4

// Sanitize drops points with a non-positive timestamp or no finite value,
// sorts ascending, and drops duplicate timestamps keeping the first.
func Sanitize(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.TS <= 0 {
			continue
		}
		any := false
		for _, v := range p.Values {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				any = true
				break
			}
		}
		if !any {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TS < out[j].TS })

	dedup := out[:0]
	var lastTS int64 = math.MinInt64
	for _, p := range out {
		if p.TS == lastTS {
			continue
		}
		dedup = append(dedup, p)
		lastTS = p.TS
	}
	return dedup
}

// Decimate keeps every Nth point where N is the smallest stride making the
// result fit max. Not random sampling: the same input always yields the
// same output.
func Decimate(points []Point, max int) []Point {
	if max <= 0 || len(points) <= max {
		return points
	}
	step := (len(points) + max - 1) / max
	out := make([]Point, 0, max)
	for i := 0; i < len(points); i += step {
		out = append(out, points[i])
	}
	return out
}

// EffectiveRadius derives the smoothing radius from the range and level.
// Finer ranges get smaller base radii; the window is capped to roughly half
// the series length so short series are never dominated by the filter.
func EffectiveRadius(rangeKey Range, level Level, nPoints int) int {
	if level == LevelOff {
		return 0
	}

	var base float64
	switch rangeKey {
	case RangeToday:
		base = 12
	case Range7d:
		base = 2
	case Range30d:
		base = 3
	case Range90d:
		base = 4
	case Range180d:
		base = 6
	case Range365d:
		base = 8
	case Range730d:
		base = 10
	case Range1825d:
		base = 12
	case Range3650d:
		base = 14
	case RangeAll:
		base = 16
	default:
		base = 3
	}

	mult := 1.0
	switch level {
	case LevelLow:
		mult = 0.6
	case LevelMed:
		mult = 1.2
	case LevelHigh:
		mult = 1.8
	}

	r := int(math.Round(base * mult))
	maxAllowed := (nPoints-1)/2 - 1
	if maxAllowed < 0 {
		maxAllowed = 0
	}
	if r > maxAllowed {
		r = maxAllowed
	}
	if r < 0 {
		r = 0
	}
	return r
}

// Smooth applies the robust filter per column: a centered rolling median of
// radius r/2 to suppress outliers, then a Gaussian-weighted moving average
// of radius r clamped per point to the local window extremes so the filter
// can never overshoot observed values. Columns that are nearly constant are
// passed through untouched.
func Smooth(points []Point, rangeKey Range, level Level) []Point {
	radius := EffectiveRadius(rangeKey, level, len(points))
	if radius <= 0 || len(points) == 0 {
		return points
	}

	cols := len(points[0].Values)
	out := clonePoints(points)

	for c := 0; c < cols; c++ {
		col := column(out, c)
		if nearlyConstant(col) {
			continue
		}
		med := rollingMedian(col, maxInt(1, radius/2))
		smoothed := clampedGaussian(med, radius)
		for i := range out {
			out[i].Values[c] = smoothed[i]
		}
	}
	return out
}

func clonePoints(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		values := make([]float64, len(p.Values))
		copy(values, p.Values)
		out[i] = Point{TS: p.TS, Values: values}
	}
	return out
}

func column(points []Point, c int) []float64 {
	col := make([]float64, len(points))
	for i, p := range points {
		if c < len(p.Values) {
			col[i] = p.Values[c]
		} else {
			col[i] = math.NaN()
		}
	}
	return col
}

func nearlyConstant(col []float64) bool {
	lo, hi := math.Inf(1), math.Inf(-1)
	has := false
	for _, v := range col {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		has = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !has {
		return true
	}
	return hi-lo <= nearlyConstantEps
}

// rollingMedian computes a centered median of radius r per point, ignoring
// null neighbours. A point with no finite neighbours stays null.
func rollingMedian(col []float64, r int) []float64 {
	out := make([]float64, len(col))
	buf := make([]float64, 0, 2*r+1)
	for i := range col {
		buf = buf[:0]
		for j := i - r; j <= i+r; j++ {
			if j < 0 || j >= len(col) {
				continue
			}
			if v := col[j]; !math.IsNaN(v) {
				buf = append(buf, v)
			}
		}
		if len(buf) == 0 {
			out[i] = math.NaN()
			continue
		}
		sort.Float64s(buf)
		mid := len(buf) / 2
		if len(buf)%2 == 0 {
			out[i] = (buf[mid-1] + buf[mid]) / 2
		} else {
			out[i] = buf[mid]
		}
	}
	return out
}

func gaussianKernel(r int) []float64 {
	sigma := float64(r) / 2
	weights := make([]float64, 2*r+1)
	sum := 0.0
	for i := -r; i <= r; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		weights[i+r] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// clampedGaussian applies a Gaussian-weighted moving average of radius r,
// renormalizing at the edges where the window is truncated, and clamps each
// output to the [min, max] of its own input window.
func clampedGaussian(col []float64, r int) []float64 {
	weights := gaussianKernel(r)
	out := make([]float64, len(col))

	for i := range col {
		acc, wsum := 0.0, 0.0
		localMin, localMax := math.Inf(1), math.Inf(-1)

		for j := -r; j <= r; j++ {
			idx := i + j
			if idx < 0 || idx >= len(col) {
				continue
			}
			v := col[idx]
			if math.IsNaN(v) {
				continue
			}
			if v < localMin {
				localMin = v
			}
			if v > localMax {
				localMax = v
			}
			w := weights[j+r]
			acc += v * w
			wsum += w
		}

		if wsum <= 0 {
			out[i] = math.NaN()
			continue
		}

		v := acc / wsum
		if v < localMin {
			v = localMin
		}
		if v > localMax {
			v = localMax
		}
		out[i] = v
	}
	return out
}

// Ticks chooses tick timestamps for the range: ~6 evenly spaced points for
// intraday, one per distinct local day downsampled to ~7 for day ranges up
// to a year, and 8 evenly spread timestamps for multi-year spans.
func Ticks(points []Point, rangeKey Range, loc *time.Location) []int64 {
	if len(points) == 0 {
		return nil
	}

	if rangeKey == RangeToday {
		step := maxInt(1, len(points)/6)
		ticks := make([]int64, 0, 7)
		for i := 0; i < len(points); i += step {
			ticks = append(ticks, points[i].TS)
		}
		return ticks
	}

	if dayRanges[rangeKey] {
		days := make([]int64, 0, len(points))
		var last int64 = math.MinInt64
		for _, p := range points {
			sod := startOfLocalDay(p.TS, loc)
			if sod != last {
				days = append(days, sod)
				last = sod
			}
		}
		step := maxInt(1, (len(days)+6)/7)
		ticks := make([]int64, 0, 7)
		for i := 0; i < len(days); i += step {
			ticks = append(ticks, days[i])
		}
		return ticks
	}

	first, lastTS := points[0].TS, points[len(points)-1].TS
	if lastTS <= first {
		return []int64{first}
	}
	const target = 8
	step := float64(lastTS-first) / (target - 1)
	ticks := make([]int64, target)
	for i := 0; i < target; i++ {
		ticks[i] = first + int64(math.Round(step*float64(i)))
	}
	return ticks
}

func startOfLocalDay(tsMillis int64, loc *time.Location) int64 {
	t := time.UnixMilli(tsMillis).In(loc)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return day.UnixMilli()
}

// YDomain returns the [low, high] axis band for a metric family: a fixed
// default band expanded outward to cover observed extremes, never shrunk
// below the default, so small-range days don't look falsely volatile.
func YDomain(metric string, points []Point) (float64, float64) {
	lo, hi, ok := extent(points)

	switch metric {
	case "temp":
		baseLo, baseHi := -10.0, 10.0
		if !ok {
			return baseLo, baseHi
		}
		return math.Min(baseLo, floor1(lo)), math.Max(baseHi, ceil1(hi))
	case "pressure":
		baseLo, baseHi := 1008.0, 1009.0
		if !ok {
			return baseLo, baseHi
		}
		return math.Min(baseLo, floor1(lo)), math.Max(baseHi, ceil1(hi))
	default:
		// wind, gust, rain and the other zero-floored families.
		top := 10.0
		if ok && ceil1(hi) > top {
			top = ceil1(hi)
		}
		return 0, top
	}
}

func extent(points []Point) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		for _, v := range p.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			ok = true
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi, ok
}

func floor1(v float64) float64 { return math.Floor(v*10) / 10 }
func ceil1(v float64) float64  { return math.Ceil(v*10) / 10 }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
