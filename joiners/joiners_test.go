package joiners

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowkit/compgraph/ops"
	"github.com/rowkit/compgraph/row"
)

func suf() ops.Suffixes { return ops.NewSuffixes() }

func aRows() row.Iter {
	return row.SliceIter([]row.Row{
		row.New().Set("id", 1).Set("name", "alice"),
	})
}

func bRows() row.Iter {
	return row.SliceIter([]row.Row{
		row.New().Set("id", 1).Set("age", 30),
	})
}

func TestInnerMatchedProducesCrossJoin(t *testing.T) {
	out, err := Inner{Suffixes: suf()}.Join([]string{"id"}, aRows(), bRows())
	require.NoError(t, err)
	got, err := row.Collect(out)
	require.NoError(t, err)
	require.Len(t, got, 1)
	name, _ := got[0].Get("name")
	age, _ := got[0].Get("age")
	assert.Equal(t, "alice", name)
	assert.Equal(t, 30, age)
}

func TestInnerUnmatchedSideYieldsNothing(t *testing.T) {
	out, err := Inner{Suffixes: suf()}.Join([]string{"id"}, aRows(), row.Empty())
	require.NoError(t, err)
	got, err := row.Collect(out)
	require.NoError(t, err)
	assert.Empty(t, got)

	out, err = Inner{Suffixes: suf()}.Join([]string{"id"}, row.Empty(), bRows())
	require.NoError(t, err)
	got, err = row.Collect(out)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOuterPassesThroughUnmatchedSides(t *testing.T) {
	out, err := Outer{Suffixes: suf()}.Join([]string{"id"}, aRows(), row.Empty())
	require.NoError(t, err)
	got, err := row.Collect(out)
	require.NoError(t, err)
	require.Len(t, got, 1)
	name, _ := got[0].Get("name")
	assert.Equal(t, "alice", name)

	out, err = Outer{Suffixes: suf()}.Join([]string{"id"}, row.Empty(), bRows())
	require.NoError(t, err)
	got, err = row.Collect(out)
	require.NoError(t, err)
	require.Len(t, got, 1)
	age, _ := got[0].Get("age")
	assert.Equal(t, 30, age)
}

func TestOuterBothEmptyYieldsNothing(t *testing.T) {
	out, err := Outer{Suffixes: suf()}.Join([]string{"id"}, row.Empty(), row.Empty())
	require.NoError(t, err)
	got, err := row.Collect(out)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLeftKeepsUnmatchedLeft(t *testing.T) {
	out, err := Left{Suffixes: suf()}.Join([]string{"id"}, aRows(), row.Empty())
	require.NoError(t, err)
	got, err := row.Collect(out)
	require.NoError(t, err)
	require.Len(t, got, 1)
	name, _ := got[0].Get("name")
	assert.Equal(t, "alice", name)
}

func TestLeftDropsUnmatchedRight(t *testing.T) {
	out, err := Left{Suffixes: suf()}.Join([]string{"id"}, row.Empty(), bRows())
	require.NoError(t, err)
	got, err := row.Collect(out)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRightKeepsUnmatchedRight(t *testing.T) {
	out, err := Right{Suffixes: suf()}.Join([]string{"id"}, row.Empty(), bRows())
	require.NoError(t, err)
	got, err := row.Collect(out)
	require.NoError(t, err)
	require.Len(t, got, 1)
	age, _ := got[0].Get("age")
	assert.Equal(t, 30, age)
}

func TestRightDropsUnmatchedLeft(t *testing.T) {
	out, err := Right{Suffixes: suf()}.Join([]string{"id"}, aRows(), row.Empty())
	require.NoError(t, err)
	got, err := row.Collect(out)
	require.NoError(t, err)
	assert.Empty(t, got)
}
