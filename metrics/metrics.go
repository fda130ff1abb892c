// Package metrics exposes an optional, nil-safe sink for per-operator row
// counters. Graph.Run is fully functional without one; a caller wires a
// Metrics implementation only if it wants observability into row volumes.
package metrics

import "github.com/DataDog/datadog-go/statsd"

// Metrics receives row-count observations from graph execution. All
// methods must tolerate being called at high frequency (once per emitted
// row, in the worst case) without blocking the graph.
type Metrics interface {
	// RowsEmitted records n additional rows produced by the named
	// operator (e.g. "map", "reduce", "join", "sort").
	RowsEmitted(operator string, n int64)
}

// Nop is the default Metrics: it discards every observation.
type Nop struct{}

// RowsEmitted implements Metrics.
func (Nop) RowsEmitted(string, int64) {}

// NopMetrics is the shared no-op instance.
var NopMetrics Metrics = Nop{}

// Datadog reports row counters to a dogstatsd agent.
type Datadog struct {
	client *statsd.Client
	tags   []string
}

// NewDatadog dials addr (host:port of a dogstatsd listener) and returns a
// Metrics implementation that emits a "compgraph.rows" counter tagged by
// operator.
func NewDatadog(addr string, tags ...string) (*Datadog, error) {
	c, err := statsd.New(addr)
	if err != nil {
		return nil, err
	}
	return &Datadog{client: c, tags: tags}, nil
}

// RowsEmitted implements Metrics.
func (d *Datadog) RowsEmitted(operator string, n int64) {
	if d == nil || d.client == nil {
		return
	}
	tags := append(append([]string{}, d.tags...), "operator:"+operator)
	_ = d.client.Count("compgraph.rows", n, tags, 1)
}

// Close flushes and closes the underlying statsd client.
func (d *Datadog) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}
