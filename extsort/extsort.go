// Package extsort implements the external (larger-than-memory) sort
// backing Graph.sort (spec §4.5): consume the input in bounded chunks,
// sort each chunk in memory, spill it to a temporary run file, then emit
// the merged, globally-sorted stream lazily via a k-way heap merge.
package extsort

import (
	"container/heap"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"github.com/rowkit/compgraph/errs"
	"github.com/rowkit/compgraph/row"
)

// Config tunes the external sort's memory/disk tradeoff.
type Config struct {
	// ChunkRows is the maximum number of rows held in memory before a
	// chunk is sorted and spilled to a run file.
	ChunkRows int
	// TempDir is the base directory spill runs are created under. Empty
	// means os.TempDir().
	TempDir string
}

// DefaultConfig returns sensible defaults (10k rows/chunk, OS temp dir).
func DefaultConfig() Config {
	return Config{ChunkRows: 10000}
}

func (c Config) chunkRows() int {
	if c.ChunkRows <= 0 {
		return 10000
	}
	return c.ChunkRows
}

// Sort returns a lazily-evaluated, ascending-by-keys stream over
// upstream. Stable: rows with equal keys retain their relative input
// order. An empty keys slice is a stable pass-through (spec §4.5) and
// never spills.
func Sort(upstream row.Iter, keys []string, cfg Config) row.Iter {
	if len(keys) == 0 {
		return upstream
	}
	return &sortIter{upstream: upstream, keys: keys, cfg: cfg}
}

// sortIter defers all work until the first Next() call, so a Sort node
// that's never consumed never touches disk.
type sortIter struct {
	upstream row.Iter
	keys     []string
	cfg      Config

	started bool
	merged  row.Iter
	workDir string
	err     error
}

func (s *sortIter) Next() (row.Row, error) {
	if !s.started {
		s.started = true
		s.merged, s.workDir, s.err = buildRuns(s.upstream, s.keys, s.cfg)
	}
	if s.err != nil {
		return row.Row{}, s.err
	}
	return s.merged.Next()
}

func (s *sortIter) Close() error {
	var err error
	if s.merged != nil {
		err = s.merged.Close()
	} else {
		// Never started consuming; the upstream is still ours to release.
		if cerr := s.upstream.Close(); cerr != nil {
			err = cerr
		}
	}
	if s.workDir != "" {
		if rerr := os.RemoveAll(s.workDir); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

type entry struct {
	r   row.Row
	key []interface{}
}

// buildRuns drains upstream in ChunkRows-sized chunks, in-memory-sorts and
// spills each as a run file, then returns a heap-merged Iter over all
// runs plus the work directory to remove on Close.
func buildRuns(upstream row.Iter, keys []string, cfg Config) (row.Iter, string, error) {
	base := cfg.TempDir
	if base == "" {
		base = os.TempDir()
	}
	workDir, err := os.MkdirTemp(base, "compgraph-sort-")
	if err != nil {
		return nil, "", errs.IO.New(errors.Wrap(err, "creating sort work dir").Error())
	}

	var runs []*run
	chunk := make([]entry, 0, cfg.chunkRows())

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		sort.SliceStable(chunk, func(i, j int) bool {
			c, _ := row.CompareKeys(chunk[i].key, chunk[j].key)
			return c < 0
		})
		r, err := spill(workDir, len(runs), chunk)
		if err != nil {
			return err
		}
		runs = append(runs, r)
		chunk = make([]entry, 0, cfg.chunkRows())
		return nil
	}

	for {
		r, err := upstream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = upstream.Close()
			closeAll(runs)
			return nil, workDir, err
		}
		key, kerr := row.Keys(r, keys)
		if kerr != nil {
			_ = upstream.Close()
			closeAll(runs)
			return nil, workDir, kerr
		}
		chunk = append(chunk, entry{r: r, key: key})
		if len(chunk) >= cfg.chunkRows() {
			if ferr := flush(); ferr != nil {
				_ = upstream.Close()
				closeAll(runs)
				return nil, workDir, ferr
			}
		}
	}
	if ferr := flush(); ferr != nil {
		_ = upstream.Close()
		closeAll(runs)
		return nil, workDir, ferr
	}
	if cerr := upstream.Close(); cerr != nil {
		closeAll(runs)
		return nil, workDir, cerr
	}

	logrus.WithFields(logrus.Fields{"runs": len(runs), "keys": keys}).Debug("external sort: spilled runs, merging")

	return newMerge(runs, keys), workDir, nil
}

type run struct {
	path  string
	seq   int
	f     *os.File
	dec   *msgpack.Decoder
	next  *row.Row
	key   []interface{}
	err   error
}

func spill(dir string, seq int, chunk []entry) (*run, error) {
	path := filepath.Join(dir, "run-"+uuid.NewV4().String()+".msgpack")
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.IO.New(errors.Wrapf(err, "creating run file %s", path).Error())
	}
	enc := msgpack.NewEncoder(f)
	for _, e := range chunk {
		if err := enc.Encode(e.r.ToMap()); err != nil {
			_ = f.Close()
			return nil, errs.IO.New(errors.Wrap(err, "spilling run").Error())
		}
	}
	if err := f.Close(); err != nil {
		return nil, errs.IO.New(errors.Wrap(err, "closing run file").Error())
	}

	rf, err := os.Open(path)
	if err != nil {
		return nil, errs.IO.New(errors.Wrap(err, "reopening run file").Error())
	}
	r := &run{path: path, seq: seq, f: rf, dec: msgpack.NewDecoder(rf)}
	return r, nil
}

func (r *run) advance(keys []string) {
	var m map[string]interface{}
	if err := r.dec.Decode(&m); err != nil {
		if err == io.EOF {
			r.next = nil
			return
		}
		r.next = nil
		r.err = errs.IO.New(errors.Wrap(err, "reading run").Error())
		return
	}
	rr := row.FromMap(m)
	key, kerr := row.Keys(rr, keys)
	if kerr != nil {
		r.next = nil
		r.err = kerr
		return
	}
	r.next = &rr
	r.key = key
}

func (r *run) close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

func closeAll(runs []*run) {
	for _, r := range runs {
		_ = r.close()
	}
}

// mergeHeap is a min-heap of runs ordered by (key, seq) so that, among
// runs with equal keys, the run that was spilled earliest (i.e. held
// earlier input rows) is popped first — preserving input-order stability
// across run boundaries.
type mergeHeap struct {
	runs []*run
	keys []string
	err  error
}

func (h *mergeHeap) Len() int { return len(h.runs) }
func (h *mergeHeap) Less(i, j int) bool {
	c, err := row.CompareKeys(h.runs[i].key, h.runs[j].key)
	if err != nil {
		h.err = err
		return false
	}
	if c != 0 {
		return c < 0
	}
	return h.runs[i].seq < h.runs[j].seq
}
func (h *mergeHeap) Swap(i, j int) { h.runs[i], h.runs[j] = h.runs[j], h.runs[i] }
func (h *mergeHeap) Push(x interface{}) { h.runs = append(h.runs, x.(*run)) }
func (h *mergeHeap) Pop() interface{} {
	old := h.runs
	n := len(old)
	r := old[n-1]
	h.runs = old[:n-1]
	return r
}

type mergeIter struct {
	keys []string
	runs []*run
	h    *mergeHeap
	init bool
}

func newMerge(runs []*run, keys []string) row.Iter {
	return &mergeIter{keys: keys, runs: runs}
}

func (m *mergeIter) lazyInit() {
	if m.init {
		return
	}
	m.init = true
	h := &mergeHeap{keys: m.keys}
	for _, r := range m.runs {
		r.advance(m.keys)
		if r.next != nil {
			h.runs = append(h.runs, r)
		}
	}
	heap.Init(h)
	m.h = h
}

func (m *mergeIter) Next() (row.Row, error) {
	m.lazyInit()
	for _, r := range m.runs {
		if r.err != nil {
			return row.Row{}, r.err
		}
	}
	if m.h.Len() == 0 {
		return row.Row{}, io.EOF
	}
	top := m.h.runs[0]
	out := *top.next
	top.advance(m.keys)
	if top.next == nil {
		heap.Pop(m.h)
		if top.err != nil {
			return out, nil // surface the error on the subsequent call once exhausted
		}
	} else {
		heap.Fix(m.h, 0)
	}
	return out, nil
}

func (m *mergeIter) Close() error {
	var err error
	for _, r := range m.runs {
		if cerr := r.close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
