package translate

import (
	"fmt"

	"github.com/roach88/expandql/internal/expr"
	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/typeinfo"
)

// filterBinder is the part of a filter clause the compiler relies on:
// applying it to a sequence yields source.Where(predicate).
type filterBinder interface {
	ApplyTo(source expr.Expr, elem typeinfo.TypeDescriptor) (expr.Expr, error)
}

// FilterExpression returns the clause's predicate as elem -> bool.
//
// The clause is applied to an empty queryable of elem and the predicate is
// read back from the resulting Where call, with its quote wrappers
// removed. Binder errors are returned unchanged. A nil clause yields a nil
// lambda.
func FilterExpression(clause *queryopts.FilterClause, elem typeinfo.TypeDescriptor) (*expr.Lambda, error) {
	if clause == nil {
		return nil, nil
	}
	return compileFilter(clause, elem)
}

func compileFilter(binder filterBinder, elem typeinfo.TypeDescriptor) (*expr.Lambda, error) {
	applied, err := binder.ApplyTo(expr.Empty(elem), elem)
	if err != nil {
		return nil, err
	}

	call, ok := applied.(*expr.Call)
	if !ok || call.Method != expr.Where || len(call.Args) != 2 {
		return nil, fmt.Errorf("%w: want Where(source, predicate), got %v", ErrUnexpectedFilterShape, applied)
	}

	predicate, ok := expr.Unquote(call.Args[1]).(*expr.Lambda)
	if !ok {
		return nil, fmt.Errorf("%w: predicate is %T, not a lambda", ErrUnexpectedFilterShape, expr.Unquote(call.Args[1]))
	}
	if !typeinfo.Same(predicate.Param.T, elem) || !typeinfo.Same(predicate.Result, typeinfo.Bool) {
		return nil, fmt.Errorf("%w: predicate is %s, want func(%s) bool", ErrUnexpectedFilterShape, predicate.Type().Name(), elem.Name())
	}
	return predicate, nil
}

// CountExpression returns q => q.LongCount(filter), or q => q.LongCount()
// when filter is nil.
func CountExpression(elem typeinfo.TypeDescriptor, filter *expr.Lambda) *expr.Lambda {
	q := expr.Param("q", typeinfo.Sequence(elem, true))
	var predicate expr.Expr
	if filter != nil {
		predicate = filter
	}
	return expr.NewLambda(q, expr.LongCountCall(q, predicate))
}
