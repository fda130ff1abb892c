package compgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowkit/compgraph/joiners"
	"github.com/rowkit/compgraph/mappers"
	"github.com/rowkit/compgraph/ops"
	"github.com/rowkit/compgraph/reducers"
	"github.com/rowkit/compgraph/row"
)

func constInput(rows ...row.Row) InputFactory {
	return func() row.Iter { return row.SliceIter(rows) }
}

func TestRunMissingInputReportsAll(t *testing.T) {
	g := FromIter("a").Join(joiners.Inner{Suffixes: ops.NewSuffixes()}, FromIter("b"), []string{"id"})
	_, err := g.Run(context.Background(), map[string]InputFactory{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestRunMapEndToEnd(t *testing.T) {
	g := FromIter("nums").Map(mappers.Apply{
		Columns:      []string{"n"},
		ResultColumn: "doubled",
		Func: func(args []interface{}) interface{} {
			return args[0].(int) * 2
		},
	})

	inputs := map[string]InputFactory{
		"nums": constInput(row.New().Set("n", 1), row.New().Set("n", 2)),
	}
	it, err := g.Run(context.Background(), inputs)
	require.NoError(t, err)
	defer it.Close()

	got, err := row.Collect(it)
	require.NoError(t, err)
	require.Len(t, got, 2)
	d0, _ := got[0].Get("doubled")
	d1, _ := got[1].Get("doubled")
	assert.Equal(t, 2, d0)
	assert.Equal(t, 4, d1)
}

func TestRunSortThenReduce(t *testing.T) {
	g := FromIter("nums").
		Sort([]string{"grp"}).
		Reduce(reducers.Count{Column: "cnt"}, []string{"grp"})

	inputs := map[string]InputFactory{
		"nums": constInput(
			row.New().Set("grp", "b").Set("v", 1),
			row.New().Set("grp", "a").Set("v", 2),
			row.New().Set("grp", "a").Set("v", 3),
		),
	}
	it, err := g.Run(context.Background(), inputs)
	require.NoError(t, err)
	defer it.Close()

	got, err := row.Collect(it)
	require.NoError(t, err)
	require.Len(t, got, 2)

	grp0, _ := got[0].Get("grp")
	cnt0, _ := got[0].Get("cnt")
	assert.Equal(t, "a", grp0)
	assert.Equal(t, 2, cnt0)

	grp1, _ := got[1].Get("grp")
	cnt1, _ := got[1].Get("cnt")
	assert.Equal(t, "b", grp1)
	assert.Equal(t, 1, cnt1)
}

func TestRunJoinEndToEnd(t *testing.T) {
	g := FromIter("left").Join(joiners.Inner{Suffixes: ops.NewSuffixes()}, FromIter("right"), []string{"id"})

	inputs := map[string]InputFactory{
		"left":  constInput(row.New().Set("id", 1).Set("name", "alice")),
		"right": constInput(row.New().Set("id", 1).Set("age", 30)),
	}
	it, err := g.Run(context.Background(), inputs)
	require.NoError(t, err)
	defer it.Close()

	got, err := row.Collect(it)
	require.NoError(t, err)
	require.Len(t, got, 1)
	name, _ := got[0].Get("name")
	age, _ := got[0].Get("age")
	assert.Equal(t, "alice", name)
	assert.Equal(t, 30, age)
}

func TestBuildersReturnFreshGraphs(t *testing.T) {
	base := FromIter("x")
	mapped := base.Map(mappers.Identity{})
	assert.NotSame(t, base, mapped)
	assert.Nil(t, base.prev)
	assert.Same(t, base, mapped.prev)
}
