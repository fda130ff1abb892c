package row

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/rowkit/compgraph/errs"
)

// Keys extracts the tuple of values named by cols from r. An empty cols
// means "the whole stream is one group" (spec §4.3); Keys returns an empty,
// but non-nil, tuple in that case so two empty tuples always compare equal.
func Keys(r Row, cols []string) ([]interface{}, error) {
	if len(cols) == 0 {
		return []interface{}{}, nil
	}
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		v, err := r.MustGet(c)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// CompareKeys lexicographically compares two equal-length key tuples,
// returning -1, 0 or 1. Both tuples must have been produced by Keys with
// the same cols.
func CompareKeys(a, b []interface{}) (int, error) {
	for i := range a {
		c, err := Compare(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

// Compare orders two dynamically-typed column values. It supports the
// value kinds spec §3 calls out: numbers (coerced to float64 via cast so
// int/float/string-typed-as-number all compare sensibly), strings, and
// timestamps. Mismatched, incomparable kinds yield an errs.Type error.
func Compare(a, b interface{}) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}

	if ta, ok := a.(time.Time); ok {
		tb, err := cast.ToTimeE(b)
		if err != nil {
			return 0, errs.Type.New("sort/group key", fmt.Sprintf("expected time, got %T", b))
		}
		switch {
		case ta.Before(tb):
			return -1, nil
		case ta.After(tb):
			return 1, nil
		default:
			return 0, nil
		}
	}

	if sa, aIsStr := a.(string); aIsStr {
		if sb, bIsStr := b.(string); bIsStr {
			switch {
			case sa < sb:
				return -1, nil
			case sa > sb:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}

	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		default:
			return 0, nil
		}
	}

	return 0, errs.Type.New("sort/group key", fmt.Sprintf("cannot compare %T and %T", a, b))
}

// Equal reports whether two key tuples compare equal. It never returns an
// error for mismatched kinds; callers that need to surface that should use
// CompareKeys directly.
func Equal(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	c, err := CompareKeys(a, b)
	return err == nil && c == 0
}
