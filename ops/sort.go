package ops

import (
	"github.com/rowkit/compgraph/extsort"
	"github.com/rowkit/compgraph/row"
)

// Sort wraps the external sort (package extsort) as an operator node.
type Sort struct {
	Keys []string
	Cfg  extsort.Config
}

// NewSort builds a Sort operator ordering ascending by keys.
func NewSort(keys []string, cfg extsort.Config) *Sort {
	return &Sort{Keys: keys, Cfg: cfg}
}

// Run returns the lazily-sorted stream over upstream.
func (op *Sort) Run(upstream row.Iter) row.Iter {
	return extsort.Sort(upstream, op.Keys, op.Cfg)
}
