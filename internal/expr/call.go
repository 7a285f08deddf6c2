package expr

import "github.com/roach88/expandql/internal/typeinfo"

// Method identifies a standard sequence operator.
type Method int

const (
	Where Method = iota
	OrderBy
	OrderByDescending
	ThenBy
	ThenByDescending
	Skip
	Take
	Select
	Count
	LongCount
	Any
	All
)

var methodNames = [...]string{
	Where:             "Where",
	OrderBy:           "OrderBy",
	OrderByDescending: "OrderByDescending",
	ThenBy:            "ThenBy",
	ThenByDescending:  "ThenByDescending",
	Skip:              "Skip",
	Take:              "Take",
	Select:            "Select",
	Count:             "Count",
	LongCount:         "LongCount",
	Any:               "Any",
	All:               "All",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return "Unknown"
}

// IsOrdering reports whether m sorts its source.
func (m Method) IsOrdering() bool {
	return m == OrderBy || m == OrderByDescending || m == ThenBy || m == ThenByDescending
}

// IsDescending reports whether m sorts in descending order.
func (m Method) IsDescending() bool {
	return m == OrderByDescending || m == ThenByDescending
}

// Call is an invocation of a sequence operator. Args[0] is always the
// source sequence; the remaining arguments are lambdas (possibly quoted)
// or constants.
type Call struct {
	Method Method
	Args   []Expr
	T      typeinfo.TypeDescriptor
}

func (c *Call) Type() typeinfo.TypeDescriptor { return c.T }
func (*Call) exprNode()                       {}

// Source returns the sequence the operator is applied to.
func (c *Call) Source() Expr {
	return c.Args[0]
}

// LambdaArg returns argument i as a lambda, stripping quotes.
func (c *Call) LambdaArg(i int) (*Lambda, bool) {
	if i >= len(c.Args) {
		return nil, false
	}
	l, ok := Unquote(c.Args[i]).(*Lambda)
	return l, ok
}

// ElementType returns the element type of a sequence expression.
func ElementType(source Expr) typeinfo.TypeDescriptor {
	return source.Type().ElementType()
}

// WhereCall filters source by predicate. The predicate may be a Lambda or
// a Quote around one.
func WhereCall(source, predicate Expr) *Call {
	return &Call{Method: Where, Args: []Expr{source, predicate}, T: source.Type()}
}

// OrderCall applies an ordering operator (OrderBy, OrderByDescending,
// ThenBy or ThenByDescending) with the given key selector.
func OrderCall(source Expr, method Method, key *Lambda) *Call {
	return &Call{Method: method, Args: []Expr{source, key}, T: source.Type()}
}

// SkipCall bypasses the first n elements of source.
func SkipCall(source Expr, n int) *Call {
	return &Call{Method: Skip, Args: []Expr{source, Const(n, typeinfo.Int)}, T: source.Type()}
}

// TakeCall keeps the first n elements of source.
func TakeCall(source Expr, n int) *Call {
	return &Call{Method: Take, Args: []Expr{source, Const(n, typeinfo.Int)}, T: source.Type()}
}

// SelectCall maps every element of source through selector.
func SelectCall(source Expr, selector *Lambda) *Call {
	queryable := typeinfo.IsQueryable(source.Type())
	return &Call{
		Method: Select,
		Args:   []Expr{source, selector},
		T:      typeinfo.Sequence(selector.Result, queryable),
	}
}

// CountCall counts the elements of source, optionally filtered by
// predicate (nil for none).
func CountCall(source Expr, predicate Expr) *Call {
	return &Call{Method: Count, Args: withOptional(source, predicate), T: typeinfo.Int}
}

// LongCountCall is CountCall with an int64 result.
func LongCountCall(source Expr, predicate Expr) *Call {
	return &Call{Method: LongCount, Args: withOptional(source, predicate), T: typeinfo.Int64}
}

// AnyCall reports whether any element satisfies predicate (nil: whether
// source is non-empty).
func AnyCall(source Expr, predicate *Lambda) *Call {
	var p Expr
	if predicate != nil {
		p = predicate
	}
	return &Call{Method: Any, Args: withOptional(source, p), T: typeinfo.Bool}
}

// AllCall reports whether every element satisfies predicate.
func AllCall(source Expr, predicate *Lambda) *Call {
	return &Call{Method: All, Args: []Expr{source, predicate}, T: typeinfo.Bool}
}

func withOptional(source, arg Expr) []Expr {
	if arg == nil {
		return []Expr{source}
	}
	return []Expr{source, arg}
}
