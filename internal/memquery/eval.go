// Package memquery evaluates expression trees against in-memory data.
//
// It is the in-process queryable provider: sequences are Go slices (or
// []any), elements are structs, pointers to structs or map[string]any.
// Member access on nil yields nil instead of failing, so projections over
// optional navigations behave like a database's outer joins.
package memquery

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/roach88/expandql/internal/expr"
)

// ErrEval is wrapped by every evaluation failure.
var ErrEval = errors.New("evaluation failed")

// env is a lexical scope of lambda parameters. Inner bindings shadow outer
// ones with the same name.
type env struct {
	name   string
	value  any
	parent *env
}

func (e *env) bind(name string, v any) *env {
	return &env{name: name, value: v, parent: e}
}

func (e *env) lookup(name string) (any, bool) {
	for s := e; s != nil; s = s.parent {
		if s.name == name {
			return s.value, true
		}
	}
	return nil, false
}

// function is an evaluated lambda.
type function func(arg any) (any, error)

// Apply evaluates l with its parameter bound to arg. Sequence results are
// returned as []any.
func Apply(l *expr.Lambda, arg any) (any, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: nil lambda", ErrEval)
	}
	v, err := eval(l.Body, (*env)(nil).bind(l.Param.Name, arg))
	if err != nil {
		return nil, err
	}
	return resolve(v)
}

// Run applies a sequence-to-sequence lambda (such as a query pipeline) to
// items and returns the resulting elements. A nil lambda returns items
// unchanged.
func Run(l *expr.Lambda, items []any) ([]any, error) {
	if l == nil {
		return items, nil
	}
	v, err := Apply(l, items)
	if err != nil {
		return nil, err
	}
	out, ok := toSlice(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s produced %T, not a sequence", ErrEval, l, v)
	}
	return out, nil
}

// Eval evaluates a closed expression (one with no free parameters).
func Eval(e expr.Expr) (any, error) {
	v, err := eval(e, nil)
	if err != nil {
		return nil, err
	}
	return resolve(v)
}

func eval(e expr.Expr, scope *env) (any, error) {
	switch n := e.(type) {
	case *expr.Parameter:
		v, ok := scope.lookup(n.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unbound parameter %s", ErrEval, n.Name)
		}
		return v, nil

	case *expr.Member:
		target, err := eval(n.Target, scope)
		if err != nil {
			return nil, err
		}
		return member(target, n.Name)

	case *expr.Constant:
		if n.Value == nil && n.T != nil && n.T.IsCollection() {
			return []any{}, nil
		}
		return n.Value, nil

	case *expr.Convert:
		return eval(n.Operand, scope)

	case *expr.Quote:
		return eval(n.Operand, scope)

	case *expr.Lambda:
		var fn function = func(arg any) (any, error) {
			v, err := eval(n.Body, scope.bind(n.Param.Name, arg))
			if err != nil {
				return nil, err
			}
			return resolve(v)
		}
		return fn, nil

	case *expr.Call:
		return evalCall(n, scope)

	case *expr.Binary:
		return evalBinary(n, scope)

	case *expr.Unary:
		v, err := eval(n.Operand, scope)
		if err != nil || v == nil {
			return nil, err
		}
		if n.Op == expr.Not {
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: ! applied to %T", ErrEval, v)
			}
			return !b, nil
		}
		return negate(v)

	case *expr.New:
		if n.Guard != nil {
			g, err := eval(n.Guard, scope)
			if err != nil {
				return nil, err
			}
			if g == nil {
				return nil, nil
			}
		}
		obj := make(map[string]any, len(n.Fields))
		for _, f := range n.Fields {
			v, err := eval(f.Value, scope)
			if err == nil {
				v, err = resolve(v)
			}
			if err != nil {
				return nil, err
			}
			obj[f.Name] = v
		}
		return obj, nil

	default:
		return nil, fmt.Errorf("%w: unsupported node %T", ErrEval, e)
	}
}

// member reads name from v. nil targets, including nil pointers, yield
// nil.
func member(v any, name string) (any, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok {
		return m[name], nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: cannot read %s from %T", ErrEval, name, v)
	}

	f := rv.FieldByName(name)
	if !f.IsValid() {
		return nil, fmt.Errorf("%w: %s has no field %s", ErrEval, rv.Type(), name)
	}
	if f.Kind() == reflect.Pointer && f.IsNil() {
		return nil, nil
	}
	return f.Interface(), nil
}

func evalFunction(e expr.Expr, scope *env) (function, error) {
	v, err := eval(expr.Unquote(e), scope)
	if err != nil {
		return nil, err
	}
	fn, ok := v.(function)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a lambda", ErrEval, e)
	}
	return fn, nil
}
