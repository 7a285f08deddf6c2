package expr

import (
	"reflect"

	"github.com/roach88/expandql/internal/typeinfo"
)

// Equivalent reports whether two trees are structurally identical:
// same node kinds, names, operators, constants and types. Parameters are
// compared by name and type, so independently built trees compare equal.
func Equivalent(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}

	switch x := a.(type) {
	case *Parameter:
		y, ok := b.(*Parameter)
		return ok && x.Name == y.Name && typeinfo.Same(x.T, y.T)
	case *Member:
		y, ok := b.(*Member)
		return ok && x.Name == y.Name && typeinfo.Same(x.T, y.T) && Equivalent(x.Target, y.Target)
	case *Constant:
		y, ok := b.(*Constant)
		return ok && typeinfo.Same(x.T, y.T) && reflect.DeepEqual(x.Value, y.Value)
	case *Convert:
		y, ok := b.(*Convert)
		return ok && typeinfo.Same(x.T, y.T) && Equivalent(x.Operand, y.Operand)
	case *Lambda:
		y, ok := b.(*Lambda)
		return ok && typeinfo.Same(x.Result, y.Result) &&
			Equivalent(x.Param, y.Param) && Equivalent(x.Body, y.Body)
	case *Quote:
		y, ok := b.(*Quote)
		return ok && Equivalent(x.Operand, y.Operand)
	case *Call:
		y, ok := b.(*Call)
		return ok && x.Method == y.Method && typeinfo.Same(x.T, y.T) && equivalentAll(x.Args, y.Args)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && Equivalent(x.Left, y.Left) && Equivalent(x.Right, y.Right)
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && Equivalent(x.Operand, y.Operand)
	case *New:
		y, ok := b.(*New)
		if !ok || len(x.Fields) != len(y.Fields) || !Equivalent(x.Guard, y.Guard) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name || !Equivalent(x.Fields[i].Value, y.Fields[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// EquivalentLambdas compares two lambda lists element-wise.
func EquivalentLambdas(a, b []*Lambda) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equivalent(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equivalentAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equivalent(a[i], b[i]) {
			return false
		}
	}
	return true
}
