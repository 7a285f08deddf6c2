package translate

import (
	"github.com/roach88/expandql/internal/expr"
	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/testutil"
	"github.com/roach88/expandql/internal/typeinfo"
)

var (
	customerType = typeinfo.For[testutil.Customer]()
	orderType    = typeinfo.For[testutil.Order]()
)

func it() *queryopts.RangeVariableNode {
	return &queryopts.RangeVariableNode{Name: queryopts.ImplicitRangeVariable}
}

func prop(source queryopts.Node, name string) *queryopts.SingleValuePropertyAccessNode {
	return &queryopts.SingleValuePropertyAccessNode{Source: source, Property: name}
}

func nav(source queryopts.Node, name string) *queryopts.SingleNavigationNode {
	return &queryopts.SingleNavigationNode{Source: source, NavigationProperty: name}
}

func coll(source queryopts.Node, name string) *queryopts.CollectionNavigationNode {
	return &queryopts.CollectionNavigationNode{Source: source, NavigationProperty: name}
}

func sel(names ...string) []queryopts.SelectItem {
	items := make([]queryopts.SelectItem, len(names))
	for i, n := range names {
		items[i] = &queryopts.PathSelectItem{Path: []string{n}}
	}
	return items
}

func expand(name string, items ...queryopts.SelectItem) *queryopts.ExpandedNavigationSelectItem {
	e := &queryopts.ExpandedNavigationSelectItem{Path: []string{name}}
	if len(items) > 0 {
		e.SelectAndExpand = &queryopts.SelectExpandClause{SelectedItems: items}
	}
	return e
}

func clause(items ...queryopts.SelectItem) *queryopts.SelectExpandClause {
	return &queryopts.SelectExpandClause{SelectedItems: items}
}

func items(groups ...[]queryopts.SelectItem) []queryopts.SelectItem {
	var out []queryopts.SelectItem
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func eq(left queryopts.Node, value any) *queryopts.BinaryOperatorNode {
	return &queryopts.BinaryOperatorNode{Op: queryopts.Eq, Left: left, Right: &queryopts.ConstantNode{Value: value}}
}

func strs(lambdas []*expr.Lambda) []string {
	out := make([]string, len(lambdas))
	for i, l := range lambdas {
		out[i] = l.String()
	}
	return out
}
