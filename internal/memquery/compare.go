package memquery

import (
	"cmp"
	"fmt"
	"reflect"
	"time"

	"github.com/roach88/expandql/internal/expr"
)

func evalBinary(b *expr.Binary, scope *env) (any, error) {
	left, err := eval(b.Left, scope)
	if err != nil {
		return nil, err
	}

	if b.Op.IsLogical() {
		l, err := truthy(left, nil)
		if err != nil {
			return nil, err
		}
		if b.Op == expr.AndAlso && !l {
			return false, nil
		}
		if b.Op == expr.OrElse && l {
			return true, nil
		}
		right, err := eval(b.Right, scope)
		if err != nil {
			return nil, err
		}
		return truthy(right, nil)
	}

	right, err := eval(b.Right, scope)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case expr.Equal:
		return equal(left, right), nil
	case expr.NotEqual:
		return !equal(left, right), nil
	}

	// Ordered comparisons involving nil are false.
	if left == nil || right == nil {
		return false, nil
	}
	c, ok := compare(left, right)
	if !ok {
		return nil, fmt.Errorf("%w: cannot compare %T with %T", ErrEval, left, right)
	}
	switch b.Op {
	case expr.GreaterThan:
		return c > 0, nil
	case expr.GreaterThanOrEqual:
		return c >= 0, nil
	case expr.LessThan:
		return c < 0, nil
	case expr.LessThanOrEqual:
		return c <= 0, nil
	default:
		return nil, fmt.Errorf("%w: unsupported operator %s", ErrEval, b.Op)
	}
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareOrder orders sort keys: nil first, then by compare. Incomparable
// keys are treated as equal, which keeps their input order.
func compareOrder(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	c, _ := compare(a, b)
	return c
}

// compare orders two scalars. Numbers compare by value across integer and
// float kinds; two integers never go through float64.
func compare(a, b any) (int, bool) {
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return compareNumbers(x, y), true
		}
		return 0, false
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
	}
	return 0, false
}

type numberKind int

const (
	signedKind numberKind = iota + 1
	unsignedKind
	floatKind
)

// numeric reports the reflect value of v and its number class.
func numeric(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	return rv, kindOf(rv) != 0
}

func kindOf(rv reflect.Value) numberKind {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return signedKind
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsignedKind
	case reflect.Float32, reflect.Float64:
		return floatKind
	default:
		return 0
	}
}

func compareNumbers(x, y reflect.Value) int {
	switch xk, yk := kindOf(x), kindOf(y); {
	case xk == signedKind && yk == signedKind:
		return cmp.Compare(x.Int(), y.Int())
	case xk == unsignedKind && yk == unsignedKind:
		return cmp.Compare(x.Uint(), y.Uint())
	case xk == signedKind && yk == unsignedKind:
		return compareSignedUnsigned(x.Int(), y.Uint())
	case xk == unsignedKind && yk == signedKind:
		return -compareSignedUnsigned(y.Int(), x.Uint())
	default:
		return cmp.Compare(toFloat(x), toFloat(y))
	}
}

func compareSignedUnsigned(i int64, u uint64) int {
	if i < 0 {
		return -1
	}
	return cmp.Compare(uint64(i), u)
}

func toFloat(rv reflect.Value) float64 {
	switch kindOf(rv) {
	case signedKind:
		return float64(rv.Int())
	case unsignedKind:
		return float64(rv.Uint())
	default:
		return rv.Float()
	}
}

func number(v any) (float64, bool) {
	rv, ok := numeric(v)
	if !ok {
		return 0, false
	}
	return toFloat(rv), true
}

func negate(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return -n, nil
	case int64:
		return -n, nil
	case float64:
		return -n, nil
	}
	if f, ok := number(v); ok {
		return -f, nil
	}
	return nil, fmt.Errorf("%w: cannot negate %T", ErrEval, v)
}
