package translate

import (
	"github.com/roach88/expandql/internal/expr"
	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/typeinfo"
)

// Includes returns the dotted navigation paths a provider has to load for
// clause: one per expanded branch, e.g. "Orders.Lines". Select
// restrictions are not applied.
func Includes(clause *queryopts.SelectExpandClause) []string {
	if clause == nil {
		return nil
	}
	return includes(clause.SelectedItems)
}

func includes(items []queryopts.SelectItem) []string {
	var out []string
	for _, item := range items {
		nav, ok := item.(*queryopts.ExpandedNavigationSelectItem)
		if !ok || nav.FirstSegment() == "" {
			continue
		}
		name := nav.FirstSegment()

		var nested []string
		if nav.SelectAndExpand != nil {
			nested = includes(nav.SelectAndExpand.SelectedItems)
		}
		if len(nested) == 0 {
			out = append(out, name)
			continue
		}
		for _, n := range nested {
			out = append(out, name+"."+n)
		}
	}
	return out
}

// BuildIncludeSelectors turns dotted include paths into root -> object
// selectors. Collections along a path are crossed with a nested Select:
//
//	"Orders.Lines.Product" => i => i.Orders.Select(i0 => i0.Lines.Select(i1 => i1.Product))
func BuildIncludeSelectors(root typeinfo.TypeDescriptor, paths []string, paramName string) ([]*expr.Lambda, error) {
	if paramName == "" {
		paramName = DefaultParameterName
	}
	names := &nameGenerator{prefix: paramName}

	selectors := make([]*expr.Lambda, 0, len(paths))
	for _, p := range paths {
		path := ParseMemberPath(p)
		if len(path) == 0 {
			return nil, &MalformedChainError{Reason: "empty include path"}
		}
		param := expr.Param(paramName, root)
		body, err := includeBody(param, root, path, names)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, expr.Erased(param, body))
	}
	return selectors, nil
}

func includeBody(target expr.Expr, t typeinfo.TypeDescriptor, path MemberPath, names *nameGenerator) (expr.Expr, error) {
	current, currentType := target, t
	for i, name := range path {
		access, err := memberAccessFrom(current, currentType, MemberPath{name})
		if err != nil {
			return nil, err
		}
		current, currentType = access, access.Type()

		if currentType.IsCollection() && i < len(path)-1 {
			elem := currentType.ElementType()
			param := expr.Param(names.fresh(), elem)
			inner, err := includeBody(param, elem, path[i+1:], names)
			if err != nil {
				return nil, err
			}
			return expr.SelectCall(current, expr.Erased(param, inner)), nil
		}
	}
	return current, nil
}
