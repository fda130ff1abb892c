// Package mappers provides the concrete ops.Mapper implementations a
// Graph typically composes with Graph.Map: column projection/removal,
// text normalization, row-splitting, filtering, and small numeric/time
// transforms, grounded on compgraph's original Python mapper library.
package mappers

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/rowkit/compgraph/row"
)

// Identity yields the row unchanged. Useful as a graph no-op or test
// fixture.
type Identity struct{}

// Map implements ops.Mapper.
func (Identity) Map(r row.Row) row.Iter { return row.SliceIter([]row.Row{r}) }

// FilterPunctuation strips ASCII punctuation out of the given column.
type FilterPunctuation struct {
	Column string
}

var punctRe = regexp.MustCompile(`[!"#$%&'()*+,\-./:;<=>?@\[\\\]^_` + "`" + `{|}~]`)

// Map implements ops.Mapper.
func (m FilterPunctuation) Map(r row.Row) row.Iter {
	v, err := r.MustGet(m.Column)
	if err != nil {
		return row.ErrIter(err)
	}
	s, _ := v.(string)
	out := r.Set(m.Column, punctRe.ReplaceAllString(s, ""))
	return row.SliceIter([]row.Row{out})
}

// LowerCase lowercases the given column's string value.
type LowerCase struct {
	Column string
}

// Map implements ops.Mapper.
func (m LowerCase) Map(r row.Row) row.Iter {
	v, err := r.MustGet(m.Column)
	if err != nil {
		return row.ErrIter(err)
	}
	s, _ := v.(string)
	out := r.Set(m.Column, strings.ToLower(s))
	return row.SliceIter([]row.Row{out})
}

// Split fans a row out into one row per Separator-delimited substring of
// Column, preserving every other column. A nil Separator splits on
// runs of whitespace, mirroring the reference implementation's default.
type Split struct {
	Column    string
	Separator *regexp.Regexp
}

// NewSplit builds a Split on an explicit separator pattern.
func NewSplit(column, separator string) Split {
	return Split{Column: column, Separator: regexp.MustCompile(separator)}
}

func (m Split) sep() *regexp.Regexp {
	if m.Separator != nil {
		return m.Separator
	}
	return regexp.MustCompile(`\s+`)
}

// Map implements ops.Mapper.
func (m Split) Map(r row.Row) row.Iter {
	v, err := r.MustGet(m.Column)
	if err != nil {
		return row.ErrIter(err)
	}
	text, _ := v.(string)

	sep := m.sep()
	locs := sep.FindAllStringIndex(text, -1)

	out := make([]row.Row, 0, len(locs)+1)
	prev := 0
	for _, loc := range locs {
		out = append(out, r.Set(m.Column, text[prev:loc[0]]))
		prev = loc[1]
	}
	if prev != len(text) {
		out = append(out, r.Set(m.Column, text[prev:]))
	}
	return row.SliceIter(out)
}

// Product multiplies Columns (as float64) together into ResultColumn.
type Product struct {
	Columns      []string
	ResultColumn string
}

// Map implements ops.Mapper.
func (m Product) Map(r row.Row) row.Iter {
	prod := 1.0
	for _, c := range m.Columns {
		v, err := r.MustGet(c)
		if err != nil {
			return row.ErrIter(err)
		}
		prod *= toFloat(v)
	}
	out := r.Set(m.ResultColumn, prod)
	return row.SliceIter([]row.Row{out})
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// Filter drops rows for which Condition returns false. Condition returns
// an error when it cannot be evaluated (e.g. a missing-column Key error
// from row.MustGet), which aborts the Map node instead of silently
// keeping or dropping the row.
type Filter struct {
	Condition func(row.Row) (bool, error)
}

// Map implements ops.Mapper.
func (m Filter) Map(r row.Row) row.Iter {
	ok, err := m.Condition(r)
	if err != nil {
		return row.ErrIter(err)
	}
	if ok {
		return row.SliceIter([]row.Row{r})
	}
	return row.Empty()
}

// Project keeps only Columns, dropping everything else.
type Project struct {
	Columns []string
}

// Map implements ops.Mapper.
func (m Project) Map(r row.Row) row.Iter {
	return row.SliceIter([]row.Row{r.Project(m.Columns)})
}

// Remove drops Columns, keeping everything else.
type Remove struct {
	Columns []string
}

// Map implements ops.Mapper.
func (m Remove) Map(r row.Row) row.Iter {
	return row.SliceIter([]row.Row{r.Remove(m.Columns)})
}

// Apply calls Func with the values of Columns (in order) and stores the
// result under ResultColumn.
type Apply struct {
	Columns      []string
	ResultColumn string
	Func         func(args []interface{}) interface{}
}

// Map implements ops.Mapper.
func (m Apply) Map(r row.Row) row.Iter {
	args := make([]interface{}, len(m.Columns))
	for i, c := range m.Columns {
		v, err := r.MustGet(c)
		if err != nil {
			return row.ErrIter(err)
		}
		args[i] = v
	}
	out := r.Set(m.ResultColumn, m.Func(args))
	return row.SliceIter([]row.Row{out})
}

// dateLayouts mirrors the reference implementation's two accepted input
// formats, tried in order (with-fraction first).
var dateLayouts = []string{
	"20060102T150405.000000",
	"20060102T150405",
}

// StringToDateTime parses Columns (UTC timestamp strings) into
// time.Time values in place.
type StringToDateTime struct {
	Columns []string
}

// Map implements ops.Mapper.
func (m StringToDateTime) Map(r row.Row) row.Iter {
	out := r
	for _, c := range m.Columns {
		v, err := out.MustGet(c)
		if err != nil {
			return row.ErrIter(err)
		}
		s, _ := v.(string)
		t, err := parseDateTime(s)
		if err != nil {
			return row.ErrIter(err)
		}
		out = out.Set(c, t)
	}
	return row.SliceIter([]row.Row{out})
}

func parseDateTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Point is a (longitude, latitude) pair, the coordinate shape expected by
// HaversineDist's Start/End columns.
type Point struct {
	Lng float64
	Lat float64
}

const earthRadiusKM = 6373.0

// HaversineDist computes the great-circle distance in kilometers between
// the Point values in Start and End, storing it in Column.
type HaversineDist struct {
	Start  string
	End    string
	Column string
}

// Map implements ops.Mapper.
func (m HaversineDist) Map(r row.Row) row.Iter {
	sv, err := r.MustGet(m.Start)
	if err != nil {
		return row.ErrIter(err)
	}
	ev, err := r.MustGet(m.End)
	if err != nil {
		return row.ErrIter(err)
	}
	start, ok1 := sv.(Point)
	end, ok2 := ev.(Point)
	if !ok1 || !ok2 {
		return row.ErrIter(errNotPoint)
	}
	d := haversine(start, end)
	out := r.Set(m.Column, d)
	return row.SliceIter([]row.Row{out})
}

var errNotPoint = rowTypeError("haversine: start/end column is not a mappers.Point")

type rowTypeError string

func (e rowTypeError) Error() string { return string(e) }

func haversine(start, end Point) float64 {
	lat1 := radians(start.Lat)
	lng1 := radians(start.Lng)
	lat2 := radians(end.Lat)
	lng2 := radians(end.Lng)

	dLat := lat2 - lat1
	dLng := lng2 - lng1

	a := sinSq(dLat/2) + cosf(lat1)*cosf(lat2)*sinSq(dLng/2)
	return 2 * earthRadiusKM * asinSqrt(a)
}

// isPunct reports whether r is in Unicode's punctuation category (so some
// ASCII symbols such as '$' and '+' are not included), used by tests that
// build fixtures without going through FilterPunctuation.
func isPunct(r rune) bool {
	return unicode.IsPunct(r)
}
