package ops

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/rowkit/compgraph/errs"
	"github.com/rowkit/compgraph/row"
)

// Parser turns one line of input text into a Row. It is supplied by the
// caller (spec §4.6); the core is format-agnostic — newline-delimited JSON
// is one possible Parser, not a built-in one.
type Parser func(line string) (row.Row, error)

// InputFactory produces a fresh row stream for a named source each time
// Graph.Run is invoked (spec §4.1).
type InputFactory func() row.Iter

// ReadIter looks up name in the inputs supplied to Run and yields
// whatever row stream its factory produces.
type ReadIter struct {
	Name string
}

// Run looks up op.Name in inputs, returning an errs.MissingInput error if
// absent.
func (op *ReadIter) Run(inputs map[string]InputFactory) (row.Iter, error) {
	factory, ok := inputs[op.Name]
	if !ok {
		return nil, errs.MissingInput.New(op.Name)
	}
	return factory(), nil
}

// Read yields one row per line of Filename, parsed by Parser. The file is
// opened lazily (on the first Next() call) and closed on exhaustion or
// early abandonment (Close).
type Read struct {
	Filename string
	Parser   Parser
}

// Run returns the lazily-opened, lazily-parsed stream over op.Filename.
func (op *Read) Run() row.Iter {
	return &readIter{filename: op.Filename, parser: op.Parser}
}

type readIter struct {
	filename string
	parser   Parser

	opened bool
	f      *os.File
	br     *bufio.Reader
	done   bool
}

func (r *readIter) open() error {
	if r.opened {
		return nil
	}
	r.opened = true
	f, err := os.Open(r.filename)
	if err != nil {
		return errs.IO.New(errors.Wrapf(err, "opening %s", r.filename).Error())
	}
	r.f = f
	r.br = bufio.NewReader(f)
	return nil
}

func (r *readIter) Next() (row.Row, error) {
	if r.done {
		return row.Row{}, io.EOF
	}
	if err := r.open(); err != nil {
		r.done = true
		return row.Row{}, err
	}

	line, err := r.br.ReadString('\n')
	if err != nil && err != io.EOF {
		r.done = true
		_ = r.Close()
		return row.Row{}, errs.IO.New(errors.Wrapf(err, "reading %s", r.filename).Error())
	}
	if err == io.EOF && line == "" {
		r.done = true
		_ = r.Close()
		return row.Row{}, io.EOF
	}
	if err == io.EOF {
		r.done = true
	}
	line = trimNewline(line)

	parsed, perr := r.parser(line)
	if perr != nil {
		if r.done {
			_ = r.Close()
		}
		return row.Row{}, errs.Parse.New(perr.Error())
	}
	return parsed, nil
}

func (r *readIter) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

func trimNewline(s string) string {
	n := len(s)
	if n > 0 && s[n-1] == '\n' {
		n--
		if n > 0 && s[n-1] == '\r' {
			n--
		}
	}
	return s[:n]
}
