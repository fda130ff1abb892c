package ndjson

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowkit/compgraph/mappers"
	"github.com/rowkit/compgraph/row"
)

func TestParserDecodesObject(t *testing.T) {
	r, err := Parser(`{"a": 1, "b": "x"}`)
	require.NoError(t, err)
	a, _ := r.Get("a")
	b, _ := r.Get("b")
	assert.Equal(t, 1.0, a)
	assert.Equal(t, "x", b)
}

func TestParserInvalidJSON(t *testing.T) {
	_, err := Parser(`not json`)
	assert.Error(t, err)
}

func TestParserWithPointsConvertsCoordinatePair(t *testing.T) {
	r, err := ParserWithPoints(`{"start": [37.6, 55.7], "name": "x"}`, "start")
	require.NoError(t, err)
	v, ok := r.Get("start")
	require.True(t, ok)
	p, ok := v.(mappers.Point)
	require.True(t, ok)
	assert.Equal(t, 37.6, p.Lng)
	assert.Equal(t, 55.7, p.Lat)
}

func TestParserWithPointsIgnoresMissingOrWrongShape(t *testing.T) {
	r, err := ParserWithPoints(`{"name": "x"}`, "start")
	require.NoError(t, err)
	_, ok := r.Get("start")
	assert.False(t, ok)

	r, err = ParserWithPoints(`{"start": [1,2,3], "name": "x"}`, "start")
	require.NoError(t, err)
	v, _ := r.Get("start")
	_, isPoint := v.(mappers.Point)
	assert.False(t, isPoint)
}

func TestReaderSkipsBlankLinesAndParsesRows(t *testing.T) {
	input := "{\"a\":1}\n\n{\"a\":2}\n"
	it := Reader(strings.NewReader(input))()
	got, err := row.Collect(it)
	require.NoError(t, err)
	require.Len(t, got, 2)
	a0, _ := got[0].Get("a")
	a1, _ := got[1].Get("a")
	assert.Equal(t, 1.0, a0)
	assert.Equal(t, 2.0, a1)
}

func TestWriterEncodesEachRow(t *testing.T) {
	rows := []row.Row{
		row.New().Set("a", 1),
		row.New().Set("a", 2),
	}
	var buf bytes.Buffer
	require.NoError(t, Writer(&buf, row.SliceIter(rows)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"a":1`)
	assert.Contains(t, lines[1], `"a":2`)
}
