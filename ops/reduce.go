package ops

import (
	"io"

	"github.com/mitchellh/hashstructure"
	"github.com/sirupsen/logrus"

	"github.com/rowkit/compgraph/row"
)

// Reducer is invoked once per contiguous run of rows sharing the same
// group-key tuple and returns the stream of rows it wants to emit for
// that group.
type Reducer interface {
	Reduce(keys []string, group row.Iter) (row.Iter, error)
}

// Reduce partitions a stream already sorted by Keys into contiguous
// groups and invokes Reducer once per group. The input MUST already be
// sorted by Keys; Reduce does not sort (spec §4.3 — callers must sort
// explicitly).
type Reduce struct {
	Reducer Reducer
	Keys    []string
	Log     *logrus.Entry
}

// NewReduce builds a Reduce operator grouping by keys.
func NewReduce(r Reducer, keys []string) *Reduce {
	return &Reduce{Reducer: r, Keys: keys, Log: logrus.WithField("op", "reduce")}
}

// Run returns the lazily-reduced stream over upstream.
func (op *Reduce) Run(upstream row.Iter) row.Iter {
	return &reduceIter{
		peeker:  newGroupedPeeker(upstream, op.Keys),
		reducer: op.Reducer,
		keys:    op.Keys,
		log:     op.Log,
	}
}

type reduceIter struct {
	peeker  *groupedPeeker
	reducer Reducer
	keys    []string
	log     *logrus.Entry

	cur row.Iter
}

func (r *reduceIter) Next() (row.Row, error) {
	for {
		if r.cur != nil {
			rr, err := r.cur.Next()
			if err == nil {
				return rr, nil
			}
			if err != io.EOF {
				return row.Row{}, err
			}
			r.cur = nil
		}

		if r.peeker.Done() {
			if err := r.peeker.Err(); err != nil {
				return row.Row{}, err
			}
			return row.Row{}, io.EOF
		}

		key := r.peeker.CurrentKey()
		group := r.peeker.TakeGroup()
		out, err := r.reducer.Reduce(r.keys, group)
		if err != nil {
			return row.Row{}, err
		}
		// The reducer may stop reading before the group is exhausted
		// (First only needs the first row); drain the remainder so the
		// peeker's lookahead lands correctly on the next group.
		if err := row.Drain(group); err != nil {
			return row.Row{}, err
		}
		if r.log != nil && r.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
			fp, _ := hashstructure.Hash(key, nil)
			r.log.WithFields(logrus.Fields{"keys": r.keys, "fingerprint": fp}).Debug("reduced group")
		}
		r.cur = out
	}
}

func (r *reduceIter) Close() error { return r.peeker.Close() }
