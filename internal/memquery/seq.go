package memquery

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/roach88/expandql/internal/expr"
)

// sortKey is one ordering key of an orderedSeq.
type sortKey struct {
	fn   function
	desc bool
}

// orderedSeq is a sequence with pending ordering keys. Keys are applied
// together in one stable sort when the sequence is consumed, so ThenBy
// only breaks ties left by earlier keys.
type orderedSeq struct {
	source []any
	keys   []sortKey
}

func (s *orderedSeq) items() ([]any, error) {
	out := make([]any, len(s.source))
	copy(out, s.source)

	keys := make([][]any, len(out))
	for i, item := range out {
		keys[i] = make([]any, len(s.keys))
		for k, key := range s.keys {
			v, err := key.fn(item)
			if err != nil {
				return nil, err
			}
			keys[i][k] = v
		}
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for k, key := range s.keys {
			c := compareOrder(keys[idx[a]][k], keys[idx[b]][k])
			if c == 0 {
				continue
			}
			if key.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	sorted := make([]any, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted, nil
}

// resolve sorts a pending ordering; other values are returned unchanged.
func resolve(v any) (any, error) {
	if s, ok := v.(*orderedSeq); ok {
		return s.items()
	}
	return v, nil
}

// toSlice converts a sequence value to []any. nil and pending orderings
// are not sequences; call resolve first.
func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case nil, *orderedSeq:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func evalCall(c *expr.Call, scope *env) (any, error) {
	srcVal, err := eval(c.Source(), scope)
	if err != nil {
		return nil, err
	}
	if srcVal == nil {
		// A nil collection behind a nil navigation propagates, except for
		// aggregates which see it as empty.
		switch c.Method {
		case expr.Count:
			return 0, nil
		case expr.LongCount:
			return int64(0), nil
		case expr.Any, expr.All:
			srcVal = []any{}
		default:
			return nil, nil
		}
	}

	// ThenBy extends a pending ordering instead of consuming it.
	if c.Method == expr.ThenBy || c.Method == expr.ThenByDescending {
		prev, ok := srcVal.(*orderedSeq)
		if !ok {
			return nil, fmt.Errorf("%w: %s on an unordered sequence", ErrEval, c.Method)
		}
		fn, err := evalFunction(c.Args[1], scope)
		if err != nil {
			return nil, err
		}
		keys := append(append([]sortKey(nil), prev.keys...), sortKey{fn: fn, desc: c.Method.IsDescending()})
		return &orderedSeq{source: prev.source, keys: keys}, nil
	}

	if srcVal, err = resolve(srcVal); err != nil {
		return nil, err
	}
	src, ok := toSlice(srcVal)
	if !ok {
		return nil, fmt.Errorf("%w: %s source is %T, not a sequence", ErrEval, c.Method, srcVal)
	}

	switch c.Method {
	case expr.Where:
		pred, err := evalFunction(c.Args[1], scope)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(src))
		for _, item := range src {
			keep, err := truthy(pred(item))
			if err != nil {
				return nil, err
			}
			if keep {
				out = append(out, item)
			}
		}
		return out, nil

	case expr.OrderBy, expr.OrderByDescending:
		fn, err := evalFunction(c.Args[1], scope)
		if err != nil {
			return nil, err
		}
		return &orderedSeq{source: src, keys: []sortKey{{fn: fn, desc: c.Method.IsDescending()}}}, nil

	case expr.Skip, expr.Take:
		n, err := intArg(c, scope)
		if err != nil {
			return nil, err
		}
		n = min(max(n, 0), len(src))
		if c.Method == expr.Skip {
			return src[n:], nil
		}
		return src[:n], nil

	case expr.Select:
		fn, err := evalFunction(c.Args[1], scope)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(src))
		for i, item := range src {
			if out[i], err = fn(item); err != nil {
				return nil, err
			}
		}
		return out, nil

	case expr.Count, expr.LongCount:
		n := len(src)
		if len(c.Args) > 1 {
			pred, err := evalFunction(c.Args[1], scope)
			if err != nil {
				return nil, err
			}
			n = 0
			for _, item := range src {
				keep, err := truthy(pred(item))
				if err != nil {
					return nil, err
				}
				if keep {
					n++
				}
			}
		}
		if c.Method == expr.LongCount {
			return int64(n), nil
		}
		return n, nil

	case expr.Any, expr.All:
		if len(c.Args) == 1 {
			return len(src) > 0, nil
		}
		pred, err := evalFunction(c.Args[1], scope)
		if err != nil {
			return nil, err
		}
		for _, item := range src {
			ok, err := truthy(pred(item))
			if err != nil {
				return nil, err
			}
			if c.Method == expr.Any && ok {
				return true, nil
			}
			if c.Method == expr.All && !ok {
				return false, nil
			}
		}
		return c.Method == expr.All, nil

	default:
		return nil, fmt.Errorf("%w: unsupported method %s", ErrEval, c.Method)
	}
}

func intArg(c *expr.Call, scope *env) (int, error) {
	v, err := eval(c.Args[1], scope)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("%w: %s count is %T, not int", ErrEval, c.Method, v)
	}
	return n, nil
}

func truthy(v any, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("%w: predicate returned %T", ErrEval, v)
	}
}
