// Package ndjson reads and writes rows as newline-delimited JSON, the
// wire format the cmd/ tools use for their input files and stdout output.
package ndjson

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/rowkit/compgraph/mappers"
	"github.com/rowkit/compgraph/ops"
	"github.com/rowkit/compgraph/row"
)

// Parser decodes one NDJSON line into a Row. Pass it to ops.Read as the
// Parser for a file-backed source, or use Reader for stream sources.
func Parser(line string) (row.Row, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return row.Row{}, err
	}
	return row.FromMap(m), nil
}

// ParserWithPoints is Parser plus a conversion step: any field named in
// pointColumns that decoded as a two-element [lng, lat] JSON array is
// replaced with a mappers.Point, for graphs (e.g. HaversineDist) that
// expect coordinate columns already typed that way.
func ParserWithPoints(line string, pointColumns ...string) (row.Row, error) {
	r, err := Parser(line)
	if err != nil {
		return row.Row{}, err
	}
	for _, col := range pointColumns {
		v, ok := r.Get(col)
		if !ok {
			continue
		}
		arr, ok := v.([]interface{})
		if !ok || len(arr) != 2 {
			continue
		}
		lng, lok := arr[0].(float64)
		lat, tok := arr[1].(float64)
		if !lok || !tok {
			continue
		}
		r = r.Set(col, mappers.Point{Lng: lng, Lat: lat})
	}
	return r, nil
}

// Reader returns an ops.InputFactory reading NDJSON rows from r. Unlike
// a file-backed source, the factory can only be called once per r — the
// caller is responsible for reopening/reseeking for a repeat pass.
func Reader(r io.Reader) ops.InputFactory {
	return func() row.Iter {
		return &readerIter{br: bufio.NewReader(r)}
	}
}

type readerIter struct {
	br   *bufio.Reader
	done bool
}

func (it *readerIter) Next() (row.Row, error) {
	if it.done {
		return row.Row{}, io.EOF
	}
	line, err := it.br.ReadString('\n')
	if err != nil && err != io.EOF {
		it.done = true
		return row.Row{}, err
	}
	if err == io.EOF {
		it.done = true
		if len(line) == 0 {
			return row.Row{}, io.EOF
		}
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	if len(line) == 0 {
		return it.Next()
	}
	return Parser(line)
}

func (it *readerIter) Close() error { return nil }

// Writer writes a row stream to w as NDJSON, one compact JSON object per
// line, and drains it fully (or returns the first error encountered).
func Writer(w io.Writer, it row.Iter) error {
	enc := json.NewEncoder(w)
	for {
		r, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(r.ToMap()); err != nil {
			return err
		}
	}
}
