package algorithms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cg "github.com/rowkit/compgraph"
	"github.com/rowkit/compgraph/mappers"
	"github.com/rowkit/compgraph/row"
)

func TestWordCountOrdersByCountThenWord(t *testing.T) {
	g := WordCount("docs", "text", "count")

	inputs := map[string]cg.InputFactory{
		"docs": func() row.Iter {
			return row.SliceIter([]row.Row{
				row.New().Set("text", "the quick fox"),
				row.New().Set("text", "the Fox, the Fox!"),
			})
		},
	}
	it, err := g.Run(context.Background(), inputs)
	require.NoError(t, err)
	defer it.Close()

	got, err := row.Collect(it)
	require.NoError(t, err)
	require.Len(t, got, 3)

	words := make([]interface{}, len(got))
	counts := make([]interface{}, len(got))
	for i, r := range got {
		words[i], _ = r.Get("text")
		counts[i], _ = r.Get("count")
	}
	assert.Equal(t, []interface{}{"quick", "fox", "the"}, words)
	assert.Equal(t, []interface{}{1, 3, 3}, counts)
}

func TestAverageSpeedComputesKmPerHour(t *testing.T) {
	g := AverageSpeed(
		"times", "lengths",
		"enter_time", "leave_time", "edge_id", "start", "end",
		"weekday", "hour", "speed",
	)

	inputs := map[string]cg.InputFactory{
		"times": func() row.Iter {
			return row.SliceIter([]row.Row{
				row.New().
					Set("edge_id", "e1").
					Set("enter_time", "20200101T120000").
					Set("leave_time", "20200101T130000"),
			})
		},
		"lengths": func() row.Iter {
			return row.SliceIter([]row.Row{
				row.New().
					Set("edge_id", "e1").
					Set("start", mappers.Point{Lng: 0, Lat: 0}).
					Set("end", mappers.Point{Lng: 0, Lat: 1}),
			})
		},
	}
	it, err := g.Run(context.Background(), inputs)
	require.NoError(t, err)
	defer it.Close()

	got, err := row.Collect(it)
	require.NoError(t, err)
	require.Len(t, got, 1)

	weekday, _ := got[0].Get("weekday")
	hour, _ := got[0].Get("hour")
	speed, _ := got[0].Get("speed")

	assert.Equal(t, "Wed", weekday)
	assert.Equal(t, 12, hour)
	assert.InDelta(t, 111.0, speed.(float64), 5.0)
}
