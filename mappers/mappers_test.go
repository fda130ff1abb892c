package mappers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowkit/compgraph/errs"
	"github.com/rowkit/compgraph/row"
)

func mapOne(t *testing.T, m interface{ Map(row.Row) row.Iter }, r row.Row) row.Row {
	t.Helper()
	got, err := row.Collect(m.Map(r))
	require.NoError(t, err)
	require.Len(t, got, 1)
	return got[0]
}

func TestIdentityPassesThrough(t *testing.T) {
	r := row.New().Set("a", 1)
	out := mapOne(t, Identity{}, r)
	v, _ := out.Get("a")
	assert.Equal(t, 1, v)
}

func TestFilterPunctuationStripsPunct(t *testing.T) {
	r := row.New().Set("text", "hello, world!")
	out := mapOne(t, FilterPunctuation{Column: "text"}, r)
	v, _ := out.Get("text")
	assert.Equal(t, "hello world", v)
	assert.True(t, isPunct(','))
}

func TestFilterPunctuationMissingColumnYieldsKeyErr(t *testing.T) {
	it := FilterPunctuation{Column: "text"}.Map(row.New())
	_, err := it.Next()
	require.Error(t, err)
	assert.True(t, errs.Key.Is(err))
}

func TestLowerCase(t *testing.T) {
	r := row.New().Set("text", "Hello World")
	out := mapOne(t, LowerCase{Column: "text"}, r)
	v, _ := out.Get("text")
	assert.Equal(t, "hello world", v)
}

func TestLowerCaseMissingColumnYieldsKeyErr(t *testing.T) {
	it := LowerCase{Column: "text"}.Map(row.New())
	_, err := it.Next()
	require.Error(t, err)
	assert.True(t, errs.Key.Is(err))
}

func TestSplitDefaultWhitespace(t *testing.T) {
	r := row.New().Set("text", "the  quick fox")
	got, err := row.Collect(Split{Column: "text"}.Map(r))
	require.NoError(t, err)
	require.Len(t, got, 3)
	words := make([]interface{}, len(got))
	for i, rr := range got {
		words[i], _ = rr.Get("text")
	}
	assert.Equal(t, []interface{}{"the", "quick", "fox"}, words)
}

func TestSplitCustomSeparator(t *testing.T) {
	m := NewSplit("csv", ",")
	r := row.New().Set("csv", "a,b,c")
	got, err := row.Collect(m.Map(r))
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestSplitMissingColumnYieldsKeyErr(t *testing.T) {
	it := Split{Column: "text"}.Map(row.New())
	_, err := it.Next()
	require.Error(t, err)
	assert.True(t, errs.Key.Is(err))
}

func TestProductMultipliesColumns(t *testing.T) {
	r := row.New().Set("a", 2).Set("b", 3.5)
	out := mapOne(t, Product{Columns: []string{"a", "b"}, ResultColumn: "p"}, r)
	v, _ := out.Get("p")
	assert.Equal(t, 7.0, v)
}

func TestProductMissingColumnYieldsKeyErr(t *testing.T) {
	it := Product{Columns: []string{"a", "b"}, ResultColumn: "p"}.Map(row.New().Set("a", 2))
	_, err := it.Next()
	require.Error(t, err)
	assert.True(t, errs.Key.Is(err))
}

func TestFilterDropsNonMatching(t *testing.T) {
	keep := Filter{Condition: func(r row.Row) (bool, error) {
		v, _ := r.Get("n")
		n, _ := v.(int)
		return n > 1, nil
	}}
	got, err := row.Collect(keep.Map(row.New().Set("n", 1)))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = row.Collect(keep.Map(row.New().Set("n", 2)))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFilterConditionErrorPropagates(t *testing.T) {
	keep := Filter{Condition: func(r row.Row) (bool, error) {
		_, err := r.MustGet("missing")
		return false, err
	}}
	it := keep.Map(row.New().Set("n", 1))
	_, err := it.Next()
	assert.Error(t, err)
	assert.True(t, errs.Key.Is(err))
}

func TestProjectKeepsOnlyNamed(t *testing.T) {
	r := row.New().Set("a", 1).Set("b", 2).Set("c", 3)
	out := mapOne(t, Project{Columns: []string{"a", "c"}}, r)
	assert.ElementsMatch(t, []string{"a", "c"}, out.Columns())
}

func TestRemoveDropsNamed(t *testing.T) {
	r := row.New().Set("a", 1).Set("b", 2)
	out := mapOne(t, Remove{Columns: []string{"b"}}, r)
	assert.ElementsMatch(t, []string{"a"}, out.Columns())
}

func TestApplyComputesFromColumns(t *testing.T) {
	m := Apply{
		Columns:      []string{"a", "b"},
		ResultColumn: "sum",
		Func: func(args []interface{}) interface{} {
			return args[0].(int) + args[1].(int)
		},
	}
	out := mapOne(t, m, row.New().Set("a", 2).Set("b", 3))
	v, _ := out.Get("sum")
	assert.Equal(t, 5, v)
}

func TestApplyMissingColumnYieldsKeyErr(t *testing.T) {
	m := Apply{
		Columns:      []string{"a", "b"},
		ResultColumn: "sum",
		Func: func(args []interface{}) interface{} {
			return args[0].(int) + args[1].(int)
		},
	}
	it := m.Map(row.New().Set("a", 2))
	_, err := it.Next()
	require.Error(t, err)
	assert.True(t, errs.Key.Is(err))
}

func TestStringToDateTimeParsesBothLayouts(t *testing.T) {
	r := row.New().Set("ts", "20231231T235959")
	out := mapOne(t, StringToDateTime{Columns: []string{"ts"}}, r)
	v, _ := out.Get("ts")
	tm, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2023, tm.Year())
	assert.Equal(t, time.December, tm.Month())

	r2 := row.New().Set("ts", "20231231T235959.500000")
	out2 := mapOne(t, StringToDateTime{Columns: []string{"ts"}}, r2)
	v2, _ := out2.Get("ts")
	tm2, ok := v2.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 59, tm2.Second())
}

func TestStringToDateTimeInvalidYieldsErr(t *testing.T) {
	it := StringToDateTime{Columns: []string{"ts"}}.Map(row.New().Set("ts", "not-a-date"))
	_, err := it.Next()
	assert.Error(t, err)
}

func TestStringToDateTimeMissingColumnYieldsKeyErr(t *testing.T) {
	it := StringToDateTime{Columns: []string{"ts"}}.Map(row.New())
	_, err := it.Next()
	require.Error(t, err)
	assert.True(t, errs.Key.Is(err))
}

func TestHaversineKnownDistance(t *testing.T) {
	moscow := Point{Lng: 37.6173, Lat: 55.7558}
	spb := Point{Lng: 30.3141, Lat: 59.9386}
	r := row.New().Set("a", moscow).Set("b", spb)
	out := mapOne(t, HaversineDist{Start: "a", End: "b", Column: "dist"}, r)
	v, _ := out.Get("dist")
	d := v.(float64)
	assert.InDelta(t, 634.0, d, 20.0)
}

func TestHaversineZeroDistanceForSamePoint(t *testing.T) {
	p := Point{Lng: 10, Lat: 20}
	r := row.New().Set("a", p).Set("b", p)
	out := mapOne(t, HaversineDist{Start: "a", End: "b", Column: "dist"}, r)
	v, _ := out.Get("dist")
	assert.InDelta(t, 0.0, v.(float64), 1e-9)
}

func TestHaversineWrongTypeYieldsErr(t *testing.T) {
	r := row.New().Set("a", "not-a-point").Set("b", Point{})
	it := HaversineDist{Start: "a", End: "b", Column: "dist"}.Map(r)
	_, err := it.Next()
	assert.Error(t, err)
}

func TestHaversineMissingColumnYieldsKeyErr(t *testing.T) {
	it := HaversineDist{Start: "a", End: "b", Column: "dist"}.Map(row.New().Set("b", Point{}))
	_, err := it.Next()
	require.Error(t, err)
	assert.True(t, errs.Key.Is(err))
}
