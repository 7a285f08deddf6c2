package translate

import (
	"fmt"
	"strings"

	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/typeinfo"
)

// ExpansionNode is one level of a requested expansion.
type ExpansionNode struct {
	// MemberName is the expanded navigation.
	MemberName string

	// MemberType is the navigation's declared type (a collection for
	// collection navigations).
	MemberType typeinfo.TypeDescriptor

	// ParentType is the (element) type the navigation is declared on.
	ParentType typeinfo.TypeDescriptor

	// Selects restricts the scalar members projected at this level.
	// Empty means every scalar member.
	Selects []string

	// Filter and OrderPage are only set when MemberType is a collection.
	Filter    *FilterDescriptor
	OrderPage *OrderPageDescriptor
}

// IsCollection reports whether the node expands a collection.
func (n ExpansionNode) IsCollection() bool {
	return n.MemberType != nil && n.MemberType.IsCollection()
}

// ElementType returns the type projected at this level: the collection
// element type, or the member type itself.
func (n ExpansionNode) ElementType() typeinfo.TypeDescriptor {
	return typeinfo.Current(n.MemberType)
}

// FilterDescriptor carries the filter of one collection expansion.
type FilterDescriptor struct {
	Clause *queryopts.FilterClause
}

// OrderPageDescriptor carries the ordering and paging of one collection
// expansion.
type OrderPageDescriptor struct {
	Steps []OrderStep
	Page  PageBounds
}

// ExpansionPath is one fully expanded branch, root's child first.
type ExpansionPath []ExpansionNode

// String renders the branch as a dotted member path.
func (p ExpansionPath) String() string {
	names := make([]string, len(p))
	for i, n := range p {
		names[i] = n.MemberName
	}
	return strings.Join(names, ".")
}

// ExpansionForest holds one path per requested branch.
type ExpansionForest []ExpansionPath

// Selects returns the first segment of every path select item in clause,
// in order. A nil clause selects nothing.
func Selects(clause *queryopts.SelectExpandClause) []string {
	if clause == nil {
		return nil
	}
	var out []string
	for _, item := range clause.SelectedItems {
		if p, ok := item.(*queryopts.PathSelectItem); ok && p.FirstSegment() != "" {
			out = append(out, p.FirstSegment())
		}
	}
	return out
}

// BuildExpansions flattens a select/expand tree into an expansion forest
// rooted at root.
//
// Rules at every level:
//   - only the first segment of an expand path is used; depth comes from
//     nested expands
//   - when the level has path selects, only expansions named by one of
//     them are kept; the rest are dropped silently
//   - filter and order/page options are attached to collection members
//     only
//   - a node without nested expansions ends its branch; otherwise it is
//     prepended to every branch produced below it
//   - a member may be expanded at most once per level
func BuildExpansions(clause *queryopts.SelectExpandClause, root typeinfo.TypeDescriptor) (ExpansionForest, error) {
	if clause == nil {
		return nil, nil
	}
	return expansions(clause.SelectedItems, Selects(clause), root)
}

func expansions(items []queryopts.SelectItem, siblingSelects []string, parent typeinfo.TypeDescriptor) (ExpansionForest, error) {
	allowed := make(map[string]bool, len(siblingSelects))
	for _, s := range siblingSelects {
		allowed[typeinfo.Normalize(s)] = true
	}

	seen := make(map[string]bool)
	var forest ExpansionForest
	for _, item := range items {
		var nav *queryopts.ExpandedNavigationSelectItem
		switch it := item.(type) {
		case *queryopts.PathSelectItem:
			continue
		case *queryopts.ExpandedNavigationSelectItem:
			nav = it
		default:
			return nil, &UnsupportedClauseError{Kind: "select", Detail: fmt.Sprintf("%T is not a select item", item)}
		}

		name := nav.FirstSegment()
		if name == "" {
			return nil, &MalformedChainError{Reason: "expansion with empty path"}
		}
		if len(allowed) > 0 && !allowed[typeinfo.Normalize(name)] {
			continue
		}
		if seen[typeinfo.Normalize(name)] {
			return nil, &UnsupportedClauseError{
				Kind:   "expand",
				Detail: fmt.Sprintf("%s expanded more than once at one level", name),
			}
		}
		seen[typeinfo.Normalize(name)] = true

		node, err := expansionNode(nav, name, parent)
		if err != nil {
			return nil, err
		}

		var children ExpansionForest
		if nav.SelectAndExpand != nil {
			children, err = expansions(nav.SelectAndExpand.SelectedItems, Selects(nav.SelectAndExpand), node.ElementType())
			if err != nil {
				return nil, fmt.Errorf("expand %s: %w", name, err)
			}
		}

		if len(children) == 0 {
			forest = append(forest, ExpansionPath{node})
			continue
		}
		for _, child := range children {
			branch := make(ExpansionPath, 0, len(child)+1)
			branch = append(branch, node)
			branch = append(branch, child...)
			forest = append(forest, branch)
		}
	}
	return forest, nil
}

func expansionNode(nav *queryopts.ExpandedNavigationSelectItem, name string, parent typeinfo.TypeDescriptor) (ExpansionNode, error) {
	current := typeinfo.Current(parent)
	if current == nil {
		return ExpansionNode{}, &UnknownMemberError{Type: "<nil>", Member: name}
	}
	m, ok := current.Member(name)
	if !ok {
		return ExpansionNode{}, &UnknownMemberError{Type: current.Name(), Member: name}
	}
	if m.Type.IsScalar() || typeinfo.Current(m.Type).IsScalar() {
		return ExpansionNode{}, &UnsupportedClauseError{
			Kind:   "expand",
			Detail: fmt.Sprintf("%s.%s is not a navigation", current.Name(), m.Name),
		}
	}

	node := ExpansionNode{
		MemberName: m.Name,
		MemberType: m.Type,
		ParentType: current,
		Selects:    Selects(nav.SelectAndExpand),
	}
	if !m.Type.IsCollection() {
		return node, nil
	}

	if nav.Filter != nil {
		node.Filter = &FilterDescriptor{Clause: nav.Filter}
	}
	if nav.OrderBy != nil || nav.Skip != nil || nav.Top != nil {
		steps, err := OrderSteps(nav.OrderBy)
		if err != nil {
			return ExpansionNode{}, fmt.Errorf("expand %s: %w", name, err)
		}
		node.OrderPage = &OrderPageDescriptor{Steps: steps, Page: PageBounds{Skip: nav.Skip, Take: nav.Top}}
	}
	return node, nil
}
