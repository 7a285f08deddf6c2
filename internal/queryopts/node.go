package queryopts

// Node is a bound query-option node: the parsed form of a filter or
// ordering expression, before it is turned into an expression tree.
//
// This is a sealed interface - only types in this package implement it.
// Consumers dispatch with an exhaustive type switch and report unknown
// kinds explicitly.
//
// Access nodes form a linked chain through their Source field, leaf to
// root, ending at a RangeVariableNode:
//
//	$it/Customer/City
//
// is
//
//	&SingleValuePropertyAccessNode{
//	  Property: "City",
//	  Source: &SingleNavigationNode{
//	    NavigationProperty: "Customer",
//	    Source:             &RangeVariableNode{Name: "$it"},
//	  },
//	}
type Node interface {
	queryNode() // Marker method - seals interface to this package
}

// AccessNode is a Node that names one member of its Source.
type AccessNode interface {
	Node

	// SourceNode returns the node the member is read from (nil on a
	// malformed chain).
	SourceNode() Node

	// MemberName returns the accessed member.
	MemberName() string
}

// RangeVariableNode references a lambda variable: the implicit "$it" of a
// clause or the variable introduced by any/all.
type RangeVariableNode struct {
	Name string
}

// SingleValuePropertyAccessNode reads a scalar member.
type SingleValuePropertyAccessNode struct {
	Source   Node
	Property string
}

// SingleNavigationNode follows a single-valued navigation.
type SingleNavigationNode struct {
	Source             Node
	NavigationProperty string
}

// SingleComplexNode reads a single-valued structured member that is not an
// entity navigation.
type SingleComplexNode struct {
	Source   Node
	Property string
}

// CollectionNavigationNode follows a collection-valued navigation.
type CollectionNavigationNode struct {
	Source             Node
	NavigationProperty string
}

// CollectionPropertyAccessNode reads a collection of scalars.
type CollectionPropertyAccessNode struct {
	Source   Node
	Property string
}

// CollectionComplexNode reads a collection of structured values.
type CollectionComplexNode struct {
	Source   Node
	Property string
}

// CountNode counts the elements of a collection-valued Source.
type CountNode struct {
	Source Node
}

// ConstantNode is a literal.
type ConstantNode struct {
	Value any
}

// BinaryOperatorNode compares or combines two operands.
type BinaryOperatorNode struct {
	Op          BinaryOperator
	Left, Right Node
}

// UnaryOperatorNode negates its operand.
type UnaryOperatorNode struct {
	Op      UnaryOperator
	Operand Node
}

// AnyNode is true when Body holds for at least one element of Source.
// A nil Body tests for a non-empty Source.
type AnyNode struct {
	Source        Node
	RangeVariable string
	Body          Node
}

// AllNode is true when Body holds for every element of Source.
type AllNode struct {
	Source        Node
	RangeVariable string
	Body          Node
}

func (*RangeVariableNode) queryNode()             {}
func (*SingleValuePropertyAccessNode) queryNode() {}
func (*SingleNavigationNode) queryNode()          {}
func (*SingleComplexNode) queryNode()             {}
func (*CollectionNavigationNode) queryNode()      {}
func (*CollectionPropertyAccessNode) queryNode()  {}
func (*CollectionComplexNode) queryNode()         {}
func (*CountNode) queryNode()                     {}
func (*ConstantNode) queryNode()                  {}
func (*BinaryOperatorNode) queryNode()            {}
func (*UnaryOperatorNode) queryNode()             {}
func (*AnyNode) queryNode()                       {}
func (*AllNode) queryNode()                       {}

func (n *SingleValuePropertyAccessNode) SourceNode() Node { return n.Source }
func (n *SingleNavigationNode) SourceNode() Node          { return n.Source }
func (n *SingleComplexNode) SourceNode() Node             { return n.Source }
func (n *CollectionNavigationNode) SourceNode() Node      { return n.Source }
func (n *CollectionPropertyAccessNode) SourceNode() Node  { return n.Source }
func (n *CollectionComplexNode) SourceNode() Node         { return n.Source }

func (n *SingleValuePropertyAccessNode) MemberName() string { return n.Property }
func (n *SingleNavigationNode) MemberName() string          { return n.NavigationProperty }
func (n *SingleComplexNode) MemberName() string             { return n.Property }
func (n *CollectionNavigationNode) MemberName() string      { return n.NavigationProperty }
func (n *CollectionPropertyAccessNode) MemberName() string  { return n.Property }
func (n *CollectionComplexNode) MemberName() string         { return n.Property }

// BinaryOperator is the operator of a BinaryOperatorNode.
type BinaryOperator int

const (
	Eq BinaryOperator = iota
	Ne
	Gt
	Ge
	Lt
	Le
	And
	Or
)

var binaryOperatorNames = map[BinaryOperator]string{
	Eq:  "eq",
	Ne:  "ne",
	Gt:  "gt",
	Ge:  "ge",
	Lt:  "lt",
	Le:  "le",
	And: "and",
	Or:  "or",
}

func (op BinaryOperator) String() string {
	if s, ok := binaryOperatorNames[op]; ok {
		return s
	}
	return "unknown"
}

// ParseBinaryOperator maps an operator keyword (eq, ne, gt, ge, lt, le,
// and, or) to its BinaryOperator.
func ParseBinaryOperator(s string) (BinaryOperator, bool) {
	for op, name := range binaryOperatorNames {
		if name == s {
			return op, true
		}
	}
	return 0, false
}

// UnaryOperator is the operator of a UnaryOperatorNode.
type UnaryOperator int

const (
	Not UnaryOperator = iota
	Negate
)

func (op UnaryOperator) String() string {
	if op == Not {
		return "not"
	}
	return "negate"
}
