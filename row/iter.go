package row

import "io"

// Iter is a lazy, finite, single-pass sequence of rows. Next returns
// io.EOF once exhausted. Close releases any resource the iterator holds
// (an open file, a spill directory, a database cursor) and must be safe to
// call more than once and safe to call before the iterator is exhausted
// (abandoning consumption early).
type Iter interface {
	Next() (Row, error)
	Close() error
}

// sliceIter replays an in-memory slice of rows. Used by reducers/joiners
// that must materialize a bounded amount of state (a single group, the
// right side of a join) before they can stream it back out.
type sliceIter struct {
	rows []Row
	pos  int
}

// SliceIter returns an Iter that yields rows in order, then io.EOF.
func SliceIter(rows []Row) Iter {
	return &sliceIter{rows: rows}
}

func (s *sliceIter) Next() (Row, error) {
	if s.pos >= len(s.rows) {
		return Row{}, io.EOF
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}

func (s *sliceIter) Close() error { return nil }

// Empty returns an Iter that yields no rows.
func Empty() Iter { return SliceIter(nil) }

// errIter yields a single error then io.EOF on every subsequent call,
// so a Mapper/Reducer/Joiner that fails can report the failure through
// the ordinary Next() protocol instead of a separate error channel.
type errIter struct{ err error }

// ErrIter returns an Iter whose first Next() call returns err.
func ErrIter(err error) Iter { return &errIter{err: err} }

func (e *errIter) Next() (Row, error) {
	if e.err == nil {
		return Row{}, io.EOF
	}
	err := e.err
	e.err = nil
	return Row{}, err
}

func (e *errIter) Close() error { return nil }

// Drain fully consumes it, discarding rows, stopping at the first error
// other than io.EOF. Useful for reducers/joiners that intentionally only
// look at a prefix of a group but must still advance past it.
func Drain(it Iter) error {
	for {
		_, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Collect fully materializes it into a slice. Callers should only do this
// when the contract guarantees bounded size (e.g. the right side of a
// join, per spec: "right group materializes into a list").
func Collect(it Iter) ([]Row, error) {
	var out []Row
	for {
		r, err := it.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
}

// funcIter adapts a plain next function to the Iter interface.
type funcIter struct {
	next  func() (Row, error)
	close func() error
}

// FuncIter builds an Iter from a next callback and an optional close
// callback (nil means Close is a no-op).
func FuncIter(next func() (Row, error), close func() error) Iter {
	if close == nil {
		close = func() error { return nil }
	}
	return &funcIter{next: next, close: close}
}

func (f *funcIter) Next() (Row, error) { return f.next() }
func (f *funcIter) Close() error       { return f.close() }
