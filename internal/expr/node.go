package expr

import (
	"github.com/roach88/expandql/internal/typeinfo"
)

// Expr is a node of an expression tree.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	// Type returns the static type of the value the node produces.
	Type() typeinfo.TypeDescriptor

	// String renders the node in lambda notation.
	String() string

	exprNode() // Marker method - seals interface to this package
}

// Parameter is a named lambda parameter.
//
// Parameters are compared by name and type, never by identity, so a tree
// rebuilt from scratch is Equivalent to the original.
type Parameter struct {
	Name string
	T    typeinfo.TypeDescriptor
}

// Param creates a parameter.
func Param(name string, t typeinfo.TypeDescriptor) *Parameter {
	return &Parameter{Name: name, T: t}
}

func (p *Parameter) Type() typeinfo.TypeDescriptor { return p.T }
func (*Parameter) exprNode()                       {}

// Member is a member access: Target.Name.
type Member struct {
	Target Expr
	Name   string
	T      typeinfo.TypeDescriptor
}

// Property creates an access to member m of target.
func Property(target Expr, m typeinfo.Member) *Member {
	return &Member{Target: target, Name: m.Name, T: m.Type}
}

func (m *Member) Type() typeinfo.TypeDescriptor { return m.T }
func (*Member) exprNode()                       {}

// Constant is a literal value.
//
// A Constant whose type is a collection and whose value is nil stands for
// an empty sequence of the element type.
type Constant struct {
	Value any
	T     typeinfo.TypeDescriptor
}

// Const creates a constant.
func Const(v any, t typeinfo.TypeDescriptor) *Constant {
	return &Constant{Value: v, T: t}
}

// Empty returns an empty queryable sequence of elem.
func Empty(elem typeinfo.TypeDescriptor) *Constant {
	return &Constant{T: typeinfo.Sequence(elem, true)}
}

func (c *Constant) Type() typeinfo.TypeDescriptor { return c.T }
func (*Constant) exprNode()                       {}

// Convert changes the static type of its operand. The translator only
// uses it to erase values to typeinfo.Object.
type Convert struct {
	Operand Expr
	T       typeinfo.TypeDescriptor
}

// Box erases e to typeinfo.Object. Value types get a Convert node;
// everything else is returned unchanged.
func Box(e Expr) Expr {
	if e.Type().IsValueType() {
		return &Convert{Operand: e, T: typeinfo.Object}
	}
	return e
}

// Unbox strips Convert nodes.
func Unbox(e Expr) Expr {
	for {
		c, ok := e.(*Convert)
		if !ok {
			return e
		}
		e = c.Operand
	}
}

func (c *Convert) Type() typeinfo.TypeDescriptor { return c.T }
func (*Convert) exprNode()                       {}

// Lambda is a single-parameter function: Param => Body.
type Lambda struct {
	Param  *Parameter
	Body   Expr
	Result typeinfo.TypeDescriptor
}

// NewLambda creates a lambda whose result type is the body's type.
func NewLambda(param *Parameter, body Expr) *Lambda {
	return &Lambda{Param: param, Body: body, Result: body.Type()}
}

// Erased creates a lambda of shape Param -> object, boxing the body when
// it produces a value type.
func Erased(param *Parameter, body Expr) *Lambda {
	return &Lambda{Param: param, Body: Box(body), Result: typeinfo.Object}
}

func (l *Lambda) Type() typeinfo.TypeDescriptor {
	return typeinfo.Func(l.Param.T, l.Result)
}
func (*Lambda) exprNode() {}

// Quote wraps a lambda passed to a queryable operator, marking it as data
// rather than a compiled function.
type Quote struct {
	Operand Expr
}

func (q *Quote) Type() typeinfo.TypeDescriptor { return q.Operand.Type() }
func (*Quote) exprNode()                       {}

// Unquote strips any number of Quote wrappers.
func Unquote(e Expr) Expr {
	for {
		q, ok := e.(*Quote)
		if !ok {
			return e
		}
		e = q.Operand
	}
}

// BinaryOp is the operator of a Binary node.
type BinaryOp int

const (
	Equal BinaryOp = iota
	NotEqual
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
	AndAlso
	OrElse
)

var binarySymbols = map[BinaryOp]string{
	Equal:              "==",
	NotEqual:           "!=",
	GreaterThan:        ">",
	GreaterThanOrEqual: ">=",
	LessThan:           "<",
	LessThanOrEqual:    "<=",
	AndAlso:            "&&",
	OrElse:             "||",
}

func (op BinaryOp) String() string {
	if s, ok := binarySymbols[op]; ok {
		return s
	}
	return "?"
}

// IsLogical reports whether op combines boolean operands.
func (op BinaryOp) IsLogical() bool {
	return op == AndAlso || op == OrElse
}

// Binary is a comparison or logical combination. Its type is always bool.
type Binary struct {
	Op          BinaryOp
	Left, Right Expr
}

// MakeBinary creates a binary node.
func MakeBinary(op BinaryOp, left, right Expr) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

func (b *Binary) Type() typeinfo.TypeDescriptor { return typeinfo.Bool }
func (*Binary) exprNode()                       {}

// UnaryOp is the operator of a Unary node.
type UnaryOp int

const (
	Not UnaryOp = iota
	Negate
)

func (op UnaryOp) String() string {
	if op == Not {
		return "!"
	}
	return "-"
}

// Unary is a logical negation or arithmetic negation.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func (u *Unary) Type() typeinfo.TypeDescriptor {
	if u.Op == Not {
		return typeinfo.Bool
	}
	return u.Operand.Type()
}
func (*Unary) exprNode() {}

// Field is one named value of a New node.
type Field struct {
	Name  string
	Value Expr
}

// New builds an object literal from named fields. The result is erased to
// typeinfo.Object.
//
// When Guard is set and evaluates to nil, the whole object evaluates to nil
// instead of an object of nil fields. The translator guards object
// literals built over single-valued navigations.
type New struct {
	Guard  Expr
	Fields []Field
}

func (n *New) Type() typeinfo.TypeDescriptor { return typeinfo.Object }
func (*New) exprNode()                       {}
