// Package joiners provides the concrete ops.Joiner strategies a Graph
// composes with Graph.Join: inner, outer, left, and right sort-merge
// join semantics, grounded on compgraph's original Python joiner
// library. Every strategy materializes both sides of a matched key-group
// before producing output, so its result never holds a live reference
// back into the sort-merge driver's group iterators.
package joiners

import (
	"github.com/rowkit/compgraph/ops"
	"github.com/rowkit/compgraph/row"
)

func collect(it row.Iter) ([]row.Row, error) {
	rows, err := row.Collect(it)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Inner keeps only key-groups present on both sides, cross-joined.
type Inner struct {
	ops.Suffixes
}

// Join implements ops.Joiner.
func (j Inner) Join(keys []string, a, b row.Iter) (row.Iter, error) {
	aRows, err := collect(a)
	if err != nil {
		return nil, err
	}
	bRows, err := collect(b)
	if err != nil {
		return nil, err
	}
	return j.ProdTables(keys, row.SliceIter(aRows), bRows), nil
}

// Outer keeps every key-group: matched groups are cross-joined, groups
// present on only one side pass through verbatim.
type Outer struct {
	ops.Suffixes
}

// Join implements ops.Joiner.
func (j Outer) Join(keys []string, a, b row.Iter) (row.Iter, error) {
	aRows, err := collect(a)
	if err != nil {
		return nil, err
	}
	bRows, err := collect(b)
	if err != nil {
		return nil, err
	}
	switch {
	case len(aRows) == 0 && len(bRows) == 0:
		return row.Empty(), nil
	case len(aRows) == 0:
		return row.SliceIter(bRows), nil
	case len(bRows) == 0:
		return row.SliceIter(aRows), nil
	default:
		return j.ProdTables(keys, row.SliceIter(aRows), bRows), nil
	}
}

// Left keeps every left-side key-group: matched groups are cross-joined,
// left-only groups pass through verbatim, right-only groups are dropped.
type Left struct {
	ops.Suffixes
}

// Join implements ops.Joiner.
func (j Left) Join(keys []string, a, b row.Iter) (row.Iter, error) {
	aRows, err := collect(a)
	if err != nil {
		return nil, err
	}
	bRows, err := collect(b)
	if err != nil {
		return nil, err
	}
	if len(bRows) == 0 {
		return row.SliceIter(aRows), nil
	}
	return j.ProdTables(keys, row.SliceIter(aRows), bRows), nil
}

// Right keeps every right-side key-group: matched groups are
// cross-joined, right-only groups pass through verbatim, left-only
// groups are dropped.
type Right struct {
	ops.Suffixes
}

// Join implements ops.Joiner.
func (j Right) Join(keys []string, a, b row.Iter) (row.Iter, error) {
	aRows, err := collect(a)
	if err != nil {
		return nil, err
	}
	bRows, err := collect(b)
	if err != nil {
		return nil, err
	}
	if len(aRows) == 0 {
		return row.SliceIter(bRows), nil
	}
	return j.ProdTables(keys, row.SliceIter(aRows), bRows), nil
}
