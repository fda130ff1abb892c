// Package compgraph is a computational-graph library for declaratively
// assembling and executing row-oriented batch dataflows in a single
// process: a directed graph of relational-style operators (map, reduce,
// sort, join) resolved, on Run, into a lazy output row stream.
//
// Graph nodes are immutable; every builder method returns a new Graph
// wrapping the receiver (spec §3 "Construction is purely functional").
package compgraph

import (
	"context"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/rowkit/compgraph/errs"
	"github.com/rowkit/compgraph/extsort"
	"github.com/rowkit/compgraph/metrics"
	"github.com/rowkit/compgraph/ops"
	"github.com/rowkit/compgraph/row"
)

// Parser turns one line of text into a Row; see ops.Parser.
type Parser = ops.Parser

// InputFactory produces a fresh row stream for a named source; see
// ops.InputFactory.
type InputFactory = ops.InputFactory

type nodeKind int

const (
	kindReadIter nodeKind = iota
	kindRead
	kindMap
	kindReduce
	kindSort
	kindJoin
)

// Graph is an immutable node in a computational graph: an operator plus
// zero, one (Map/Reduce/Sort), or two (Join) child graphs. The graph has
// no cycles by construction — every combinator can only reference
// pre-existing graphs.
type Graph struct {
	kind nodeKind
	prev *Graph
	side *Graph

	sourceName string
	filename   string
	parser     Parser

	mapper  ops.Mapper
	reducer ops.Reducer
	keys    []string
	joiner  ops.Joiner
	sortCfg extsort.Config
}

// FromIter constructs a graph whose source is the named entry of the
// inputs map passed to Run.
func FromIter(name string) *Graph {
	return &Graph{kind: kindReadIter, sourceName: name}
}

// FromFile constructs a graph that reads newline-delimited records from
// filename, parsed by parser.
func FromFile(filename string, parser Parser) *Graph {
	return &Graph{kind: kindRead, filename: filename, parser: parser}
}

// Map returns a new graph applying m to every row of the receiver.
func (g *Graph) Map(m ops.Mapper) *Graph {
	return &Graph{kind: kindMap, prev: g, mapper: m}
}

// Reduce returns a new graph grouping the receiver by keys and invoking r
// once per group. The receiver MUST already be sorted by keys.
func (g *Graph) Reduce(r ops.Reducer, keys []string) *Graph {
	return &Graph{kind: kindReduce, prev: g, reducer: r, keys: keys}
}

// Sort returns a new graph ordering the receiver ascending by keys, using
// extsort.DefaultConfig(). Use SortWith to tune chunk size/temp dir.
func (g *Graph) Sort(keys []string) *Graph {
	return g.SortWith(keys, extsort.DefaultConfig())
}

// SortWith is Sort with an explicit external-sort configuration.
func (g *Graph) SortWith(keys []string, cfg extsort.Config) *Graph {
	return &Graph{kind: kindSort, prev: g, keys: keys, sortCfg: cfg}
}

// Join returns a new graph merging the receiver (left) with other
// (right) using j, matched on keys. Both sides MUST already be sorted by
// keys.
func (g *Graph) Join(j ops.Joiner, other *Graph, keys []string) *Graph {
	return &Graph{kind: kindJoin, prev: g, side: other, joiner: j, keys: keys}
}

// Run resolves the graph against the given named input factories and
// returns the lazy output row stream. ctx is used only to start the
// tracing span; it is not passed to operators or input factories (a
// source such as source.FromDB takes its own context when it is built).
// Operator evaluation stays synchronous and pull-based (spec §5).
func (g *Graph) Run(ctx context.Context, inputs map[string]InputFactory) (row.Iter, error) {
	return g.RunWith(ctx, inputs, metrics.NopMetrics)
}

// RunWith is Run with an explicit Metrics sink instead of the no-op
// default.
func (g *Graph) RunWith(ctx context.Context, inputs map[string]InputFactory, m metrics.Metrics) (row.Iter, error) {
	if err := checkInputs(g, inputs); err != nil {
		return nil, err
	}

	var span opentracing.Span
	if tracer := opentracing.GlobalTracer(); tracer != nil {
		span, ctx = opentracing.StartSpanFromContextWithTracer(ctx, tracer, "compgraph.Run")
	}

	it, err := g.build(ctx, inputs, m)
	if err != nil {
		if span != nil {
			span.Finish()
		}
		return nil, err
	}
	if span != nil {
		it = spanClosingIter{Iter: it, span: span}
	}
	return it, nil
}

// checkInputs collects every ReadIter source name reachable from g and
// reports ALL undefined ones at once (rather than failing fast on the
// first), aggregated via go-multierror, so a caller fixing up a kwargs map
// doesn't have to re-run once per typo.
func checkInputs(g *Graph, inputs map[string]InputFactory) error {
	seen := map[string]bool{}
	collectSourceNames(g, seen)

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	var missing *multierror.Error
	for _, n := range names {
		if _, ok := inputs[n]; !ok {
			missing = multierror.Append(missing, errs.MissingInput.New(n))
		}
	}
	return missing.ErrorOrNil()
}

func collectSourceNames(g *Graph, seen map[string]bool) {
	if g == nil {
		return
	}
	if g.kind == kindReadIter {
		seen[g.sourceName] = true
	}
	collectSourceNames(g.prev, seen)
	collectSourceNames(g.side, seen)
}

// build performs the recursive descent from spec §4.1: a source node
// invokes its source, a unary node materializes its upstream then wraps
// it, and Join materializes both sides. The kind-vs-(prev,side) invariants
// below can only be violated by a bug in this package — every exported
// builder method sets them consistently — so they panic rather than
// return an error.
func (g *Graph) build(ctx context.Context, inputs map[string]InputFactory, m metrics.Metrics) (row.Iter, error) {
	switch g.kind {
	case kindReadIter:
		assertGraphShape(g.prev == nil && g.side == nil, "source node must not have prev/side")
		r := &ops.ReadIter{Name: g.sourceName}
		it, err := r.Run(inputs)
		if err != nil {
			return nil, err
		}
		return instrument("read_iter", it, m), nil

	case kindRead:
		assertGraphShape(g.prev == nil && g.side == nil, "source node must not have prev/side")
		r := &ops.Read{Filename: g.filename, Parser: g.parser}
		return instrument("read", r.Run(), m), nil

	case kindMap:
		assertGraphShape(g.prev != nil && g.side == nil, "map node requires prev, no side")
		up, err := g.prev.build(ctx, inputs, m)
		if err != nil {
			return nil, err
		}
		return instrument("map", ops.NewMap(g.mapper).Run(up), m), nil

	case kindReduce:
		assertGraphShape(g.prev != nil && g.side == nil, "reduce node requires prev, no side")
		up, err := g.prev.build(ctx, inputs, m)
		if err != nil {
			return nil, err
		}
		red := ops.NewReduce(g.reducer, g.keys)
		red.Log = logrus.WithField("op", "reduce")
		return instrument("reduce", red.Run(up), m), nil

	case kindSort:
		assertGraphShape(g.prev != nil && g.side == nil, "sort node requires prev, no side")
		up, err := g.prev.build(ctx, inputs, m)
		if err != nil {
			return nil, err
		}
		return instrument("sort", ops.NewSort(g.keys, g.sortCfg).Run(up), m), nil

	case kindJoin:
		assertGraphShape(g.prev != nil && g.side != nil, "join node requires both prev and side")
		left, err := g.prev.build(ctx, inputs, m)
		if err != nil {
			return nil, err
		}
		right, err := g.side.build(ctx, inputs, m)
		if err != nil {
			_ = left.Close()
			return nil, err
		}
		return instrument("join", ops.NewJoin(g.joiner, g.keys).Run(left, right), m), nil

	default:
		panic(errs.GraphStructure.New("unknown operator kind").Error())
	}
}

func assertGraphShape(ok bool, msg string) {
	if !ok {
		panic(errs.GraphStructure.New(msg).Error())
	}
}

// instrument wraps it so every successfully-emitted row is reported to m
// under operator's name. A nil/no-op Metrics makes this a zero-cost pass
// through in all but name.
func instrument(operator string, it row.Iter, m metrics.Metrics) row.Iter {
	if m == nil {
		return it
	}
	return &countingIter{Iter: it, operator: operator, m: m}
}

type countingIter struct {
	row.Iter
	operator string
	m        metrics.Metrics
}

func (c *countingIter) Next() (row.Row, error) {
	r, err := c.Iter.Next()
	if err == nil {
		c.m.RowsEmitted(c.operator, 1)
	}
	return r, err
}

// spanClosingIter finishes an opentracing span when the stream's Close is
// called, covering the (lazy, possibly long-running) lifetime of the
// iterator chain built by one Run call.
type spanClosingIter struct {
	row.Iter
	span opentracing.Span
}

func (s spanClosingIter) Close() error {
	err := s.Iter.Close()
	s.span.Finish()
	return err
}
