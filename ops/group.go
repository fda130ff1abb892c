package ops

import (
	"io"

	"github.com/rowkit/compgraph/row"
)

// groupedPeeker walks a sorted upstream row.Iter one row of lookahead
// ahead of the caller, so the caller can tell where the current
// contiguous run of equal-key rows ends without consuming the first row
// of the next run. It is the shared boundary-detection primitive behind
// both Reduce's grouping (one stream) and Join's sort-merge driver (two
// streams, compared against each other instead of against themselves).
type groupedPeeker struct {
	upstream row.Iter
	keys     []string

	primed  bool
	next    *row.Row
	nextKey []interface{}
	err     error // sticky non-EOF error, or nil
}

func newGroupedPeeker(upstream row.Iter, keys []string) *groupedPeeker {
	return &groupedPeeker{upstream: upstream, keys: keys}
}

func (p *groupedPeeker) prime() {
	if p.primed {
		return
	}
	p.primed = true
	p.advance()
}

// advance pulls the next row from upstream into the lookahead slot.
func (p *groupedPeeker) advance() {
	r, err := p.upstream.Next()
	if err == io.EOF {
		p.next = nil
		return
	}
	if err != nil {
		p.next = nil
		p.err = err
		return
	}
	key, kerr := row.Keys(r, p.keys)
	if kerr != nil {
		p.next = nil
		p.err = kerr
		return
	}
	p.next = &r
	p.nextKey = key
}

// Err returns the first non-EOF error encountered, if any.
func (p *groupedPeeker) Err() error {
	p.prime()
	return p.err
}

// Done reports whether the stream (and any error) has been fully drained.
func (p *groupedPeeker) Done() bool {
	p.prime()
	return p.next == nil
}

// CurrentKey returns the key tuple of the row that starts the next group.
// Only valid when !Done().
func (p *groupedPeeker) CurrentKey() []interface{} {
	p.prime()
	return p.nextKey
}

// TakeGroup returns an Iter over the contiguous run of rows starting at
// the current lookahead row and sharing its key tuple. The returned Iter
// must be fully drained (or row.Drain'd) before calling TakeGroup again.
func (p *groupedPeeker) TakeGroup() row.Iter {
	p.prime()
	key := p.nextKey
	return &groupIter{p: p, key: key}
}

// Close releases the underlying upstream.
func (p *groupedPeeker) Close() error { return p.upstream.Close() }

type groupIter struct {
	p         *groupedPeeker
	key       []interface{}
	exhausted bool
}

func (g *groupIter) Next() (row.Row, error) {
	if g.exhausted {
		return row.Row{}, io.EOF
	}
	p := g.p
	if p.next == nil {
		g.exhausted = true
		if p.err != nil {
			return row.Row{}, p.err
		}
		return row.Row{}, io.EOF
	}
	if !row.Equal(p.nextKey, g.key) {
		g.exhausted = true
		return row.Row{}, io.EOF
	}
	cur := *p.next
	p.advance()
	return cur, nil
}

func (g *groupIter) Close() error { return nil }
