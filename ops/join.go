package ops

import (
	"io"

	"github.com/rowkit/compgraph/row"
)

// Joiner is invoked once per matched key-group from the sort-merge driver.
// For unmatched groups on outer-type joins, one side's group.Iter will be
// row.Empty().
type Joiner interface {
	Join(keys []string, a, b row.Iter) (row.Iter, error)
}

// Join is the sort-merge join driver. Both upstreams MUST already be
// sorted ascending by Keys (spec §4.4); Join does not sort either side.
type Join struct {
	Joiner Joiner
	Keys   []string
}

// NewJoin builds a Join operator matching on keys.
func NewJoin(j Joiner, keys []string) *Join {
	return &Join{Joiner: j, Keys: keys}
}

// Run walks left and right in lockstep, grouped by Keys, and returns the
// lazily-produced merged stream.
func (op *Join) Run(left, right row.Iter) row.Iter {
	return &joinIter{
		left:   newGroupedPeeker(left, op.Keys),
		right:  newGroupedPeeker(right, op.Keys),
		joiner: op.Joiner,
		keys:   op.Keys,
	}
}

type joinIter struct {
	left, right *groupedPeeker
	joiner      Joiner
	keys        []string

	cur row.Iter
}

func (j *joinIter) Next() (row.Row, error) {
	for {
		if j.cur != nil {
			r, err := j.cur.Next()
			if err == nil {
				return r, nil
			}
			if err != io.EOF {
				return row.Row{}, err
			}
			j.cur = nil
		}

		leftDone, rightDone := j.left.Done(), j.right.Done()
		if err := j.left.Err(); err != nil {
			return row.Row{}, err
		}
		if err := j.right.Err(); err != nil {
			return row.Row{}, err
		}

		switch {
		case leftDone && rightDone:
			return row.Row{}, io.EOF

		case leftDone:
			g := j.right.TakeGroup()
			out, err := j.joiner.Join(j.keys, row.Empty(), g)
			if err != nil {
				return row.Row{}, err
			}
			if err := row.Drain(g); err != nil {
				return row.Row{}, err
			}
			j.cur = out

		case rightDone:
			g := j.left.TakeGroup()
			out, err := j.joiner.Join(j.keys, g, row.Empty())
			if err != nil {
				return row.Row{}, err
			}
			if err := row.Drain(g); err != nil {
				return row.Row{}, err
			}
			j.cur = out

		default:
			c, err := row.CompareKeys(j.left.CurrentKey(), j.right.CurrentKey())
			if err != nil {
				return row.Row{}, err
			}
			switch {
			case c < 0:
				g := j.left.TakeGroup()
				out, err := j.joiner.Join(j.keys, g, row.Empty())
				if err != nil {
					return row.Row{}, err
				}
				if err := row.Drain(g); err != nil {
					return row.Row{}, err
				}
				j.cur = out
			case c > 0:
				g := j.right.TakeGroup()
				out, err := j.joiner.Join(j.keys, row.Empty(), g)
				if err != nil {
					return row.Row{}, err
				}
				if err := row.Drain(g); err != nil {
					return row.Row{}, err
				}
				j.cur = out
			default:
				ga := j.left.TakeGroup()
				gb := j.right.TakeGroup()
				out, err := j.joiner.Join(j.keys, ga, gb)
				if err != nil {
					return row.Row{}, err
				}
				if err := row.Drain(ga); err != nil {
					return row.Row{}, err
				}
				if err := row.Drain(gb); err != nil {
					return row.Row{}, err
				}
				j.cur = out
			}
		}
	}
}

func (j *joinIter) Close() error {
	err := j.left.Close()
	if rerr := j.right.Close(); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

// Suffixes carries the two column-name suffixes a Joiner implementation
// uses to disambiguate non-key columns that collide between its two
// inputs. Embed Suffixes in a concrete Joiner to get sensible zero-value
// defaults ("_1"/"_2", per spec §4.4).
type Suffixes struct {
	A string
	B string
}

// NewSuffixes returns the default suffix pair.
func NewSuffixes() Suffixes { return Suffixes{A: "_1", B: "_2"} }

// ProdTables computes the inner cartesian product of a (streamed) and b
// (already materialized) for one matched key-group, per spec §4.4: key
// columns copied once, non-key columns present on both sides suffixed,
// columns unique to one side passed through verbatim. b is materialized
// by the caller because it may be scanned once per row of a.
func (s Suffixes) ProdTables(keys []string, a row.Iter, b []row.Row) row.Iter {
	if len(b) == 0 {
		return row.Empty()
	}
	aSuf, bSuf := s.A, s.B
	if aSuf == "" && bSuf == "" {
		aSuf, bSuf = "_1", "_2"
	}

	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}

	bi := 0
	var curA row.Row
	haveA := false

	next := func() (row.Row, error) {
		for {
			if !haveA {
				r, err := a.Next()
				if err != nil {
					return row.Row{}, err
				}
				curA = r
				haveA = true
				bi = 0
			}
			if bi >= len(b) {
				haveA = false
				continue
			}
			bRow := b[bi]
			bi++
			out := row.New()
			for _, k := range keys {
				v, _ := curA.Get(k)
				out = out.Set(k, v)
			}
			// Columns on the left: common with the right get suffixed on
			// both sides, A-only columns pass through verbatim.
			for _, c := range curA.Columns() {
				if keySet[c] {
					continue
				}
				if bv, ok := bRow.Get(c); ok {
					av, _ := curA.Get(c)
					out = out.Set(c+aSuf, av)
					out = out.Set(c+bSuf, bv)
				} else {
					av, _ := curA.Get(c)
					out = out.Set(c, av)
				}
			}
			// Columns unique to the right pass through verbatim; common
			// ones were already written above.
			for _, c := range bRow.Columns() {
				if keySet[c] || hasCol(curA, c) {
					continue
				}
				v, _ := bRow.Get(c)
				out = out.Set(c, v)
			}
			return out, nil
		}
	}

	return row.FuncIter(next, func() error { return nil })
}

func hasCol(r row.Row, c string) bool {
	_, ok := r.Get(c)
	return ok
}
