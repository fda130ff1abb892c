// Package row defines the canonical unit of data moving through a
// compgraph graph: an open, unordered, dynamically-typed string-keyed
// record, and the lazy, single-pass iterator protocol operators compose
// over.
package row

import (
	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/rowkit/compgraph/errs"
)

// Row is an immutable, structurally-shared key/value record. The zero
// value is an empty Row, equivalent to New().
//
// Row is backed by a persistent radix tree rather than a plain map so that
// Set/Delete return a new Row that shares unchanged structure with the
// receiver. This makes the "mappers treat input rows as read-only, and may
// cheaply copy-on-write" contract a property of the type itself: callers
// never need to defensively clone a map before mutating one field.
type Row struct {
	tree *iradix.Tree
}

// New returns an empty Row.
func New() Row {
	return Row{tree: iradix.New()}
}

// FromMap builds a Row from a plain map, useful at the boundary where a
// parser callable produces row.Row values from external input.
func FromMap(m map[string]interface{}) Row {
	tree := iradix.New()
	for k, v := range m {
		tree, _, _ = tree.Insert([]byte(k), v)
	}
	return Row{tree: tree}
}

// Get returns the value stored at col, and whether it was present.
func (r Row) Get(col string) (interface{}, bool) {
	if r.tree == nil {
		return nil, false
	}
	return r.tree.Get([]byte(col))
}

// MustGet returns the value at col, or an errs.Key error if absent.
func (r Row) MustGet(col string) (interface{}, error) {
	v, ok := r.Get(col)
	if !ok {
		return nil, errs.Key.New(col)
	}
	return v, nil
}

// Set returns a new Row with col bound to v, leaving the receiver
// untouched. Unrelated columns are shared with the receiver, not copied.
func (r Row) Set(col string, v interface{}) Row {
	tree := r.tree
	if tree == nil {
		tree = iradix.New()
	}
	tree, _, _ = tree.Insert([]byte(col), v)
	return Row{tree: tree}
}

// Delete returns a new Row with col removed, if present.
func (r Row) Delete(col string) Row {
	if r.tree == nil {
		return r
	}
	tree, _, ok := r.tree.Delete([]byte(col))
	if !ok {
		return r
	}
	return Row{tree: tree}
}

// Has reports whether col is present on the row.
func (r Row) Has(col string) bool {
	_, ok := r.Get(col)
	return ok
}

// Len returns the number of columns on the row.
func (r Row) Len() int {
	if r.tree == nil {
		return 0
	}
	return r.tree.Len()
}

// Columns returns the row's column names in sorted order.
func (r Row) Columns() []string {
	if r.tree == nil {
		return nil
	}
	cols := make([]string, 0, r.tree.Len())
	it := r.tree.Iterator()
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		cols = append(cols, string(k))
	}
	return cols
}

// ToMap materializes the row as a plain map, for handing off to a
// serializer (e.g. the NDJSON marshaling used by the example CLI tools).
func (r Row) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, r.Len())
	if r.tree == nil {
		return m
	}
	it := r.tree.Iterator()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		m[string(k)] = v
	}
	return m
}

// Project returns a new Row containing only the listed columns.
// Columns absent from the receiver are silently skipped (Project's
// contract is "yields a new row containing only the listed columns";
// callers that need strict presence should MustGet the columns first).
func (r Row) Project(cols []string) Row {
	out := New()
	for _, c := range cols {
		if v, ok := r.Get(c); ok {
			out = out.Set(c, v)
		}
	}
	return out
}

// Remove returns a new Row with the listed columns removed.
func (r Row) Remove(cols []string) Row {
	out := r
	for _, c := range cols {
		out = out.Delete(c)
	}
	return out
}

// Merge returns a new row combining the receiver's columns with other's,
// with other's values winning on overlap.
func (r Row) Merge(other Row) Row {
	out := r
	for _, c := range other.Columns() {
		v, _ := other.Get(c)
		out = out.Set(c, v)
	}
	return out
}
