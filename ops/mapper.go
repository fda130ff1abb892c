// Package ops holds the operator kernel: the Mapper/Reducer/Joiner
// capability interfaces, and the Map/Reduce/Sort/Join/Read/ReadIter
// operator wrappers that turn one or two upstream row.Iter values into a
// new, lazily-evaluated row.Iter.
package ops

import (
	"io"

	"github.com/rowkit/compgraph/row"
)

// Mapper turns one input row into zero or more output rows.
type Mapper interface {
	Map(r row.Row) row.Iter
}

// Map flattens its Mapper's output across every upstream row: for each
// input row it yields every row the mapper produces for it.
type Map struct {
	Mapper Mapper
}

// NewMap builds a Map operator around m.
func NewMap(m Mapper) *Map { return &Map{Mapper: m} }

// Run returns the lazily-mapped stream over upstream.
func (op *Map) Run(upstream row.Iter) row.Iter {
	return &mapIter{upstream: upstream, mapper: op.Mapper}
}

type mapIter struct {
	upstream row.Iter
	mapper   Mapper
	cur      row.Iter
}

func (m *mapIter) Next() (row.Row, error) {
	for {
		if m.cur != nil {
			r, err := m.cur.Next()
			if err == nil {
				return r, nil
			}
			if err != io.EOF {
				return row.Row{}, err
			}
			m.cur = nil
		}

		r, err := m.upstream.Next()
		if err != nil {
			return row.Row{}, err
		}
		m.cur = m.mapper.Map(r)
	}
}

func (m *mapIter) Close() error {
	var err error
	if m.cur != nil {
		err = m.cur.Close()
	}
	if cerr := m.upstream.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
