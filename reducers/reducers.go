// Package reducers provides the concrete ops.Reducer implementations a
// Graph composes with Graph.Reduce: per-key aggregation (count, sum,
// mean), positional selection (first, top-N), and per-group numbering
// (index), grounded on compgraph's original Python reducer library.
package reducers

import (
	"container/heap"
	"io"
	"sort"

	"github.com/spf13/cast"

	"github.com/rowkit/compgraph/errs"
	"github.com/rowkit/compgraph/row"
)

// First yields only the first row of each group. Because ops.Reduce
// drains any rows a reducer leaves unread, First does not need to
// consume the rest of the group itself.
type First struct{}

// Reduce implements ops.Reducer.
func (First) Reduce(keys []string, group row.Iter) (row.Iter, error) {
	r, err := group.Next()
	if err == io.EOF {
		return row.Empty(), nil
	}
	if err != nil {
		return nil, err
	}
	return row.SliceIter([]row.Row{r}), nil
}

// baseFromKeys projects the columns present in r among keys, tolerating
// keys absent from r (spec: group-key columns that happen to be missing
// from the first row of a group are simply omitted from the result,
// rather than erroring).
func baseFromKeys(r row.Row, keys []string) row.Row {
	out := row.New()
	for _, k := range keys {
		if v, ok := r.Get(k); ok {
			out = out.Set(k, v)
		}
	}
	return out
}

// Count counts the rows in each group, storing the count under Column.
type Count struct {
	Column string
}

// Reduce implements ops.Reducer.
func (c Count) Reduce(keys []string, group row.Iter) (row.Iter, error) {
	var result row.Row
	have := false
	n := 0
	for {
		r, err := group.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !have {
			result = baseFromKeys(r, keys)
			have = true
		}
		n++
	}
	if !have {
		return row.Empty(), nil
	}
	return row.SliceIter([]row.Row{result.Set(c.Column, n)}), nil
}

// Sum adds Column across the group, keyed by the group's key columns.
type Sum struct {
	Column string
}

// Reduce implements ops.Reducer.
func (s Sum) Reduce(keys []string, group row.Iter) (row.Iter, error) {
	var result row.Row
	have := false
	sum := 0.0
	for {
		r, err := group.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !have {
			result = baseFromKeys(r, keys)
			have = true
		}
		v, err := r.MustGet(s.Column)
		if err != nil {
			return nil, err
		}
		f, ferr := cast.ToFloat64E(v)
		if ferr != nil {
			return nil, errs.Type.New(s.Column, ferr.Error())
		}
		sum += f
	}
	if !have {
		return row.Empty(), nil
	}
	return row.SliceIter([]row.Row{result.Set(s.Column, sum)}), nil
}

// Mean averages Column across the group.
type Mean struct {
	Column string
}

// Reduce implements ops.Reducer.
func (m Mean) Reduce(keys []string, group row.Iter) (row.Iter, error) {
	var result row.Row
	have := false
	sum, n := 0.0, 0
	for {
		r, err := group.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !have {
			result = baseFromKeys(r, keys)
			have = true
		}
		v, err := r.MustGet(m.Column)
		if err != nil {
			return nil, err
		}
		f, ferr := cast.ToFloat64E(v)
		if ferr != nil {
			return nil, errs.Type.New(m.Column, ferr.Error())
		}
		sum += f
		n++
	}
	if !have || n == 0 {
		return row.Empty(), nil
	}
	return row.SliceIter([]row.Row{result.Set(m.Column, sum/float64(n))}), nil
}

// MeanSpeed divides the group's total DistColumn by its total
// TimeColumn, storing the result under ResultColumn.
type MeanSpeed struct {
	DistColumn   string
	TimeColumn   string
	ResultColumn string
}

// Reduce implements ops.Reducer.
func (m MeanSpeed) Reduce(keys []string, group row.Iter) (row.Iter, error) {
	var result row.Row
	have := false
	sumDist, sumTime := 0.0, 0.0
	for {
		r, err := group.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !have {
			result = baseFromKeys(r, keys)
			have = true
		}
		dv, err := r.MustGet(m.DistColumn)
		if err != nil {
			return nil, err
		}
		tv, err := r.MustGet(m.TimeColumn)
		if err != nil {
			return nil, err
		}
		d, derr := cast.ToFloat64E(dv)
		if derr != nil {
			return nil, errs.Type.New(m.DistColumn, derr.Error())
		}
		t, terr := cast.ToFloat64E(tv)
		if terr != nil {
			return nil, errs.Type.New(m.TimeColumn, terr.Error())
		}
		sumDist += d
		sumTime += t
	}
	if !have {
		return row.Empty(), nil
	}
	return row.SliceIter([]row.Row{result.Set(m.ResultColumn, sumDist/sumTime)}), nil
}

// Index adds a zero-based, arrival-order column to every row of the
// group (no aggregation).
type Index struct {
	Column string
}

// Reduce implements ops.Reducer.
func (ix Index) Reduce(keys []string, group row.Iter) (row.Iter, error) {
	var out []row.Row
	i := 0
	for {
		r, err := group.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r.Set(ix.Column, i))
		i++
	}
	return row.SliceIter(out), nil
}

// TermFrequency counts occurrences of each distinct value in WordsColumn
// within the group and stores each word's share under ResultColumn.
// Output order is first-seen order of the word within the group.
type TermFrequency struct {
	WordsColumn  string
	ResultColumn string
}

// Reduce implements ops.Reducer.
func (tf TermFrequency) Reduce(keys []string, group row.Iter) (row.Iter, error) {
	counts := map[interface{}]int{}
	var order []interface{}
	var base row.Row
	have := false
	total := 0

	for {
		r, err := group.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !have {
			base = baseFromKeys(r, keys)
			have = true
		}
		v, err := r.MustGet(tf.WordsColumn)
		if err != nil {
			return nil, err
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
		total++
	}
	if !have {
		return row.Empty(), nil
	}

	out := make([]row.Row, 0, len(order))
	for _, w := range order {
		out = append(out, base.Set(tf.WordsColumn, w).Set(tf.ResultColumn, float64(counts[w])/float64(total)))
	}
	return row.SliceIter(out), nil
}

// TopN keeps the N rows of the group with the largest Column value. Ties
// are broken in favor of the row that arrived earliest in the group.
// Output is ordered descending by Column.
type TopN struct {
	Column string
	N      int
}

type topEntry struct {
	value interface{}
	idx   int
	row   row.Row
}

// topHeap is a min-heap over (value, arrival order): the smallest
// surviving value is always at the root so a new, strictly larger value
// can evict it in O(log N). On equal values the later arrival sorts as
// the smaller (more evictable) element, so ties favor the earlier row.
type topHeap struct {
	entries []topEntry
	cmpErr  error
}

func (h *topHeap) Len() int { return len(h.entries) }
func (h *topHeap) Less(i, j int) bool {
	c, err := row.Compare(h.entries[i].value, h.entries[j].value)
	if err != nil {
		h.cmpErr = err
		return false
	}
	if c != 0 {
		return c < 0
	}
	return h.entries[i].idx > h.entries[j].idx
}
func (h *topHeap) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }
func (h *topHeap) Push(x interface{}) { h.entries = append(h.entries, x.(topEntry)) }
func (h *topHeap) Pop() interface{} {
	old := h.entries
	n := len(old)
	e := old[n-1]
	h.entries = old[:n-1]
	return e
}

// Reduce implements ops.Reducer.
func (t TopN) Reduce(keys []string, group row.Iter) (row.Iter, error) {
	if t.N <= 0 {
		if err := row.Drain(group); err != nil {
			return nil, err
		}
		return row.Empty(), nil
	}

	h := &topHeap{}
	idx := 0
	for {
		r, err := group.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		v, err := r.MustGet(t.Column)
		if err != nil {
			return nil, err
		}
		if h.Len() < t.N {
			heap.Push(h, topEntry{value: v, idx: idx, row: r})
		} else {
			c, cerr := row.Compare(v, h.entries[0].value)
			if cerr != nil {
				return nil, cerr
			}
			if c > 0 {
				heap.Pop(h)
				heap.Push(h, topEntry{value: v, idx: idx, row: r})
			}
		}
		if h.cmpErr != nil {
			return nil, h.cmpErr
		}
		idx++
	}

	entries := append([]topEntry(nil), h.entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		c, _ := row.Compare(entries[i].value, entries[j].value)
		return c > 0
	})
	out := make([]row.Row, len(entries))
	for i, e := range entries {
		out[i] = e.row
	}
	return row.SliceIter(out), nil
}
