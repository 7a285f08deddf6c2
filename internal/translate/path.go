package translate

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/expandql/internal/expr"
	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/typeinfo"
)

// MemberPath is a root-to-leaf sequence of member names. Once resolved
// from a real access chain it is never empty.
type MemberPath []string

// ParseMemberPath splits a dotted path. Empty segments are dropped.
func ParseMemberPath(s string) MemberPath {
	var p MemberPath
	for _, seg := range strings.Split(s, ".") {
		if seg = strings.TrimSpace(seg); seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// String joins the segments with ".".
func (p MemberPath) String() string {
	return strings.Join(p, ".")
}

// Equal reports sequence equality.
func (p MemberPath) Equal(other MemberPath) bool {
	return slices.Equal(p, other)
}

// ResolvePath walks an access chain from leaf to root and returns the
// member path in root-to-leaf order.
//
// The walk ends at a range variable. A nil source or a chain that revisits
// a node yields *MalformedChainError; non-access nodes inside the chain
// yield *UnsupportedClauseError.
func ResolvePath(node queryopts.Node) (MemberPath, error) {
	var reversed []string
	visited := make(map[queryopts.Node]bool)

	for {
		if isNilNode(node) {
			return nil, &MalformedChainError{Reason: fmt.Sprintf("nil source after %q", strings.Join(reversed, " <- "))}
		}
		if visited[node] {
			return nil, &MalformedChainError{Reason: fmt.Sprintf("cyclic source at %q", strings.Join(reversed, " <- "))}
		}
		visited[node] = true

		var next queryopts.Node
		switch n := node.(type) {
		case *queryopts.RangeVariableNode:
			if len(reversed) == 0 {
				return nil, &MalformedChainError{Reason: fmt.Sprintf("chain has no members below range variable %q", n.Name)}
			}
			slices.Reverse(reversed)
			return MemberPath(reversed), nil
		case *queryopts.SingleValuePropertyAccessNode:
			reversed, next = append(reversed, n.Property), n.Source
		case *queryopts.SingleNavigationNode:
			reversed, next = append(reversed, n.NavigationProperty), n.Source
		case *queryopts.SingleComplexNode:
			reversed, next = append(reversed, n.Property), n.Source
		case *queryopts.CollectionNavigationNode:
			reversed, next = append(reversed, n.NavigationProperty), n.Source
		case *queryopts.CollectionPropertyAccessNode:
			reversed, next = append(reversed, n.Property), n.Source
		case *queryopts.CollectionComplexNode:
			reversed, next = append(reversed, n.Property), n.Source
		default:
			return nil, &UnsupportedClauseError{Kind: "access chain", Detail: fmt.Sprintf("%T is not a member access", node)}
		}
		node = next
	}
}

// CountPath resolves the path of the collection a count node counts.
func CountPath(n *queryopts.CountNode) (MemberPath, error) {
	if n == nil {
		return nil, &MalformedChainError{Reason: "nil count node"}
	}
	return ResolvePath(n.Source)
}

// isNilNode reports a nil interface or a typed nil pointer.
func isNilNode(n queryopts.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// MemberAccess builds param.<path[0]>.<path[1]>... resolving every
// segment against the declared type of the previous one, starting at root.
func MemberAccess(root typeinfo.TypeDescriptor, path MemberPath, param *expr.Parameter) (expr.Expr, error) {
	if len(path) == 0 {
		return nil, &MalformedChainError{Reason: "empty member path"}
	}
	return memberAccessFrom(param, root, path)
}

// memberAccessFrom extends target (of type t) with the members of path.
func memberAccessFrom(target expr.Expr, t typeinfo.TypeDescriptor, path MemberPath) (expr.Expr, error) {
	current := target
	for _, name := range path {
		if t == nil || t.IsCollection() || t.IsScalar() {
			return nil, unknownMember(t, name, path)
		}
		m, ok := t.Member(name)
		if !ok {
			return nil, unknownMember(t, name, path)
		}
		current = expr.Property(current, m)
		t = m.Type
	}
	return current, nil
}

func unknownMember(t typeinfo.TypeDescriptor, name string, path MemberPath) *UnknownMemberError {
	typeName := "<nil>"
	if t != nil {
		typeName = t.Name()
	}
	return &UnknownMemberError{Type: typeName, Member: name, Path: path.String()}
}

// Selector wraps MemberAccess in a lambda: paramName => paramName.<path>.
func Selector(root typeinfo.TypeDescriptor, path MemberPath, paramName string) (*expr.Lambda, error) {
	param := expr.Param(paramName, root)
	body, err := MemberAccess(root, path, param)
	if err != nil {
		return nil, err
	}
	return expr.NewLambda(param, body), nil
}
