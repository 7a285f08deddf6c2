package translate

import (
	"fmt"

	"github.com/roach88/expandql/internal/expr"
	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/typeinfo"
)

// DefaultOrderVariable names the key selector parameter when the clause
// carries no range variable.
const DefaultOrderVariable = "a"

// OrderStep is one ordering key. The first step of a sequence is the
// primary key; the rest are tie-breaks applied with then-by semantics.
type OrderStep struct {
	// Path is the member path of the key, or of the counted collection
	// when Count is set.
	Path MemberPath

	// Count orders by the number of elements of the collection at Path.
	Count bool

	Direction queryopts.Direction

	// Variable names the key selector parameter. Empty means
	// DefaultOrderVariable.
	Variable string
}

// String renders the step as "Path asc" or "count(Path) desc".
func (s OrderStep) String() string {
	key := s.Path.String()
	if s.Count {
		key = "count(" + key + ")"
	}
	return key + " " + s.Direction.String()
}

func (s OrderStep) variable() string {
	if s.Variable == "" {
		return DefaultOrderVariable
	}
	return s.Variable
}

// PageBounds are optional skip and take counts.
type PageBounds struct {
	Skip *int
	Take *int
}

// IsZero reports whether neither bound is set.
func (p PageBounds) IsZero() bool {
	return p.Skip == nil && p.Take == nil
}

func (p PageBounds) validate() error {
	if p.Skip != nil && *p.Skip < 0 {
		return &UnsupportedClauseError{Kind: "skip", Detail: fmt.Sprintf("negative bound %d", *p.Skip)}
	}
	if p.Take != nil && *p.Take < 0 {
		return &UnsupportedClauseError{Kind: "top", Detail: fmt.Sprintf("negative bound %d", *p.Take)}
	}
	return nil
}

// OrderSteps converts an ordering clause chain into steps.
//
// Count nodes become count steps and scalar property accesses become plain
// steps. Every other node kind is rejected with *UnsupportedClauseError.
func OrderSteps(clause *queryopts.OrderByClause) ([]OrderStep, error) {
	var steps []OrderStep
	for c := clause; c != nil; c = c.ThenBy {
		step := OrderStep{Direction: c.Direction, Variable: c.RangeVariable}

		switch n := c.Expression.(type) {
		case *queryopts.CountNode:
			path, err := CountPath(n)
			if err != nil {
				return nil, fmt.Errorf("order by count: %w", err)
			}
			step.Path, step.Count = path, true
		case *queryopts.SingleValuePropertyAccessNode:
			path, err := ResolvePath(n)
			if err != nil {
				return nil, fmt.Errorf("order by: %w", err)
			}
			step.Path = path
		case nil:
			return nil, &MalformedChainError{Reason: "ordering clause without expression"}
		default:
			return nil, &UnsupportedClauseError{Kind: "orderby", Detail: fmt.Sprintf("%T cannot be used as an ordering key", n)}
		}

		steps = append(steps, step)
	}
	return steps, nil
}

// BuildOrderChain applies steps and page to source, a sequence
// expression:
//
//	source.OrderBy(k0).ThenByDescending(k1).Skip(s).Take(t)
//
// With no steps, a Take bound alone yields source.Take(t) and the Skip
// bound is dropped: unordered paging only truncates. With no steps and no
// Take the result is nil, meaning no transformation.
func BuildOrderChain(source expr.Expr, steps []OrderStep, page PageBounds) (expr.Expr, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	if !source.Type().IsCollection() {
		return nil, &UnsupportedClauseError{Kind: "source", Detail: fmt.Sprintf("%s is not a sequence", source.Type().Name())}
	}

	if len(steps) == 0 {
		if page.Take == nil {
			return nil, nil
		}
		return expr.TakeCall(source, *page.Take), nil
	}

	elem := source.Type().ElementType()
	chain := source
	for i, step := range steps {
		key, err := orderKey(elem, step)
		if err != nil {
			return nil, err
		}
		chain = expr.OrderCall(chain, orderMethod(i == 0, step.Direction), key)
	}

	if page.Skip != nil {
		chain = expr.SkipCall(chain, *page.Skip)
	}
	if page.Take != nil {
		chain = expr.TakeCall(chain, *page.Take)
	}
	return chain, nil
}

// QueryableLambda wraps BuildOrderChain over a queryable parameter:
// q => q.OrderBy(...)... It returns nil when there is no transformation.
func QueryableLambda(elem typeinfo.TypeDescriptor, steps []OrderStep, page PageBounds) (*expr.Lambda, error) {
	q := expr.Param("q", typeinfo.Sequence(elem, true))
	body, err := BuildOrderChain(q, steps, page)
	if err != nil || body == nil {
		return nil, err
	}
	return expr.NewLambda(q, body), nil
}

func orderMethod(primary bool, d queryopts.Direction) expr.Method {
	switch {
	case primary && d == queryopts.Descending:
		return expr.OrderByDescending
	case primary:
		return expr.OrderBy
	case d == queryopts.Descending:
		return expr.ThenByDescending
	default:
		return expr.ThenBy
	}
}

// orderKey compiles the key selector of one step. Count steps resolve the
// path to the collection itself and count it: a => a.Orders.Count().
func orderKey(elem typeinfo.TypeDescriptor, step OrderStep) (*expr.Lambda, error) {
	param := expr.Param(step.variable(), elem)
	access, err := MemberAccess(elem, step.Path, param)
	if err != nil {
		return nil, err
	}
	if !step.Count {
		return expr.NewLambda(param, access), nil
	}

	if !access.Type().IsCollection() {
		return nil, &UnsupportedClauseError{
			Kind:   "orderby",
			Detail: fmt.Sprintf("count of %s: %s is not a collection", step.Path, access.Type().Name()),
		}
	}
	return expr.NewLambda(param, expr.CountCall(access, nil)), nil
}
