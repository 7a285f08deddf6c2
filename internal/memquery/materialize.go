package memquery

import (
	"fmt"

	"github.com/roach88/expandql/internal/expr"
)

// Materialize applies every selector to every item and merges the results
// into one object per item.
//
// Each selector is anchored at a member chain rooted at its parameter:
// i => i.Address.City writes obj["Address"]["City"], and
// i => i.Orders.Select(...) writes obj["Orders"]. When a navigation along
// the chain is nil, the navigation itself is recorded as nil.
func Materialize(selectors []*expr.Lambda, items []any) ([]map[string]any, error) {
	anchors := make([][]string, len(selectors))
	for i, sel := range selectors {
		path, err := anchorPath(sel)
		if err != nil {
			return nil, err
		}
		anchors[i] = path
	}

	out := make([]map[string]any, len(items))
	for i, item := range items {
		obj := make(map[string]any)
		for s, sel := range selectors {
			if err := place(obj, anchors[s], sel, item); err != nil {
				return nil, fmt.Errorf("selector %s: %w", sel, err)
			}
		}
		out[i] = obj
	}
	return out, nil
}

// anchorPath returns the member names of the chain a selector writes to.
func anchorPath(sel *expr.Lambda) ([]string, error) {
	body := expr.Unbox(sel.Body)
	if call, ok := body.(*expr.Call); ok {
		body = call.Source()
	}

	var reversed []string
	for {
		switch n := body.(type) {
		case *expr.Member:
			reversed = append(reversed, n.Name)
			body = n.Target
			continue
		case *expr.Parameter:
			if n.Name != sel.Param.Name || len(reversed) == 0 {
				return nil, fmt.Errorf("%w: selector %s is not anchored at its parameter", ErrEval, sel)
			}
		default:
			return nil, fmt.Errorf("%w: selector %s is not a member chain", ErrEval, sel)
		}
		break
	}

	path := make([]string, len(reversed))
	for i, name := range reversed {
		path[len(reversed)-1-i] = name
	}
	return path, nil
}

// place evaluates sel on item and stores the result under path in obj.
func place(obj map[string]any, path []string, sel *expr.Lambda, item any) error {
	// Stop at the first nil navigation along the path.
	current := item
	for depth, name := range path[:len(path)-1] {
		v, err := member(current, name)
		if err != nil {
			return err
		}
		if v == nil {
			setPath(obj, path[:depth+1], nil)
			return nil
		}
		current = v
	}

	v, err := Apply(sel, item)
	if err != nil {
		return err
	}
	setPath(obj, path, v)
	return nil
}

// setPath stores v under path, creating intermediate objects. A prefix
// already recorded as nil is left alone.
func setPath(obj map[string]any, path []string, v any) {
	for _, name := range path[:len(path)-1] {
		next, exists := obj[name]
		if exists && next == nil {
			return
		}
		child, ok := next.(map[string]any)
		if !ok {
			child = make(map[string]any)
			obj[name] = child
		}
		obj = child
	}
	obj[path[len(path)-1]] = v
}
