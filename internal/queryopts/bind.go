package queryopts

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/roach88/expandql/internal/expr"
	"github.com/roach88/expandql/internal/typeinfo"
)

// BindError reports a filter clause that cannot be bound to an element
// type: unknown members, unbound range variables, or ill-typed operands.
type BindError struct {
	Node   string // kind of node being bound
	Reason string
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %s", e.Node, e.Reason)
}

// IsBindError returns true if err is or wraps a *BindError.
func IsBindError(err error) bool {
	var be *BindError
	return errors.As(err, &be)
}

// ApplyTo binds the clause against elem and applies it to source,
// returning source.Where(quote(<range variable> => <predicate>)).
//
// source must be a sequence of elem. The lambda is quoted, as a queryable
// provider would receive it.
func (c *FilterClause) ApplyTo(source expr.Expr, elem typeinfo.TypeDescriptor) (expr.Expr, error) {
	if c == nil || c.Expression == nil {
		return nil, &BindError{Node: "filter", Reason: "empty filter clause"}
	}
	if !source.Type().IsCollection() {
		return nil, &BindError{Node: "filter", Reason: fmt.Sprintf("source %s is not a sequence", source.Type().Name())}
	}
	if got := source.Type().ElementType(); !typeinfo.Same(got, elem) {
		return nil, &BindError{
			Node:   "filter",
			Reason: fmt.Sprintf("source element type %s does not match %s", got.Name(), elem.Name()),
		}
	}

	it := expr.Param(c.RangeVariableName(), elem)
	b := &binder{scope: map[string]*expr.Parameter{it.Name: it}}

	body, err := b.bind(c.Expression)
	if err != nil {
		return nil, err
	}
	if !typeinfo.Same(body.Type(), typeinfo.Bool) {
		return nil, &BindError{Node: "filter", Reason: fmt.Sprintf("predicate has type %s, want bool", body.Type().Name())}
	}

	return expr.WhereCall(source, &expr.Quote{Operand: expr.NewLambda(it, body)}), nil
}

// binder turns nodes into expressions with a lexical scope of range
// variables.
type binder struct {
	scope map[string]*expr.Parameter
}

func (b *binder) with(p *expr.Parameter) *binder {
	scope := make(map[string]*expr.Parameter, len(b.scope)+1)
	for k, v := range b.scope {
		scope[k] = v
	}
	scope[p.Name] = p
	return &binder{scope: scope}
}

func (b *binder) bind(n Node) (expr.Expr, error) {
	switch node := n.(type) {
	case *RangeVariableNode:
		p, ok := b.scope[node.Name]
		if !ok {
			return nil, &BindError{Node: "range variable", Reason: fmt.Sprintf("%q is not in scope", node.Name)}
		}
		return p, nil

	case *SingleValuePropertyAccessNode, *SingleNavigationNode, *SingleComplexNode,
		*CollectionNavigationNode, *CollectionPropertyAccessNode, *CollectionComplexNode:
		return b.bindAccess(node.(AccessNode))

	case *CountNode:
		src, err := b.bindSource("count", node.Source)
		if err != nil {
			return nil, err
		}
		if !src.Type().IsCollection() {
			return nil, &BindError{Node: "count", Reason: fmt.Sprintf("%s is not a collection", src)}
		}
		return expr.CountCall(src, nil), nil

	case *ConstantNode:
		return expr.Const(node.Value, constantType(node.Value)), nil

	case *BinaryOperatorNode:
		return b.bindBinary(node)

	case *UnaryOperatorNode:
		operand, err := b.bindSource("unary", node.Operand)
		if err != nil {
			return nil, err
		}
		if node.Op == Not {
			if !typeinfo.Same(operand.Type(), typeinfo.Bool) {
				return nil, &BindError{Node: "not", Reason: fmt.Sprintf("operand has type %s, want bool", operand.Type().Name())}
			}
			return &expr.Unary{Op: expr.Not, Operand: operand}, nil
		}
		return &expr.Unary{Op: expr.Negate, Operand: operand}, nil

	case *AnyNode:
		src, lambda, err := b.bindLambda("any", node.Source, node.RangeVariable, node.Body)
		if err != nil {
			return nil, err
		}
		return expr.AnyCall(src, lambda), nil

	case *AllNode:
		if node.Body == nil {
			return nil, &BindError{Node: "all", Reason: "missing predicate"}
		}
		src, lambda, err := b.bindLambda("all", node.Source, node.RangeVariable, node.Body)
		if err != nil {
			return nil, err
		}
		return expr.AllCall(src, lambda), nil

	case nil:
		return nil, &BindError{Node: "node", Reason: "nil node"}

	default:
		return nil, &BindError{Node: fmt.Sprintf("%T", n), Reason: "unsupported node kind"}
	}
}

func (b *binder) bindSource(kind string, n Node) (expr.Expr, error) {
	if n == nil {
		return nil, &BindError{Node: kind, Reason: "missing source"}
	}
	return b.bind(n)
}

func (b *binder) bindAccess(n AccessNode) (expr.Expr, error) {
	src, err := b.bindSource("member access", n.SourceNode())
	if err != nil {
		return nil, err
	}
	current := src.Type()
	if current.IsCollection() {
		return nil, &BindError{
			Node:   "member access",
			Reason: fmt.Sprintf("cannot read %q from collection %s", n.MemberName(), current.Name()),
		}
	}
	m, ok := current.Member(n.MemberName())
	if !ok {
		return nil, &BindError{
			Node:   "member access",
			Reason: fmt.Sprintf("type %s has no member %q", current.Name(), n.MemberName()),
		}
	}
	return expr.Property(src, m), nil
}

func (b *binder) bindBinary(node *BinaryOperatorNode) (expr.Expr, error) {
	left, err := b.bindSource(node.Op.String(), node.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.bindSource(node.Op.String(), node.Right)
	if err != nil {
		return nil, err
	}

	var op expr.BinaryOp
	switch node.Op {
	case Eq:
		op = expr.Equal
	case Ne:
		op = expr.NotEqual
	case Gt:
		op = expr.GreaterThan
	case Ge:
		op = expr.GreaterThanOrEqual
	case Lt:
		op = expr.LessThan
	case Le:
		op = expr.LessThanOrEqual
	case And:
		op = expr.AndAlso
	case Or:
		op = expr.OrElse
	default:
		return nil, &BindError{Node: "binary", Reason: fmt.Sprintf("unknown operator %d", node.Op)}
	}

	if op.IsLogical() {
		for _, operand := range []expr.Expr{left, right} {
			if !typeinfo.Same(operand.Type(), typeinfo.Bool) {
				return nil, &BindError{
					Node:   node.Op.String(),
					Reason: fmt.Sprintf("operand %s has type %s, want bool", operand, operand.Type().Name()),
				}
			}
		}
	}
	return expr.MakeBinary(op, left, right), nil
}

func (b *binder) bindLambda(kind string, source Node, variable string, body Node) (expr.Expr, *expr.Lambda, error) {
	src, err := b.bindSource(kind, source)
	if err != nil {
		return nil, nil, err
	}
	if !src.Type().IsCollection() {
		return nil, nil, &BindError{Node: kind, Reason: fmt.Sprintf("%s is not a collection", src)}
	}
	if body == nil {
		return src, nil, nil
	}
	if variable == "" {
		return nil, nil, &BindError{Node: kind, Reason: "missing range variable"}
	}

	p := expr.Param(variable, src.Type().ElementType())
	predicate, err := b.with(p).bind(body)
	if err != nil {
		return nil, nil, err
	}
	if !typeinfo.Same(predicate.Type(), typeinfo.Bool) {
		return nil, nil, &BindError{Node: kind, Reason: fmt.Sprintf("predicate has type %s, want bool", predicate.Type().Name())}
	}
	return src, expr.NewLambda(p, predicate), nil
}

// constantType returns the descriptor of a literal's Go type. nil
// literals are typed as Object.
func constantType(v any) typeinfo.TypeDescriptor {
	if v == nil {
		return typeinfo.Object
	}
	return typeinfo.Of(reflect.TypeOf(v))
}
