package translate

import (
	"fmt"

	"github.com/roach88/expandql/internal/expr"
	"github.com/roach88/expandql/internal/typeinfo"
)

// DefaultParameterName is the root parameter of projection selectors.
const DefaultParameterName = "i"

// ProjectionOptions configures ProjectionOptions.Build.
type ProjectionOptions struct {
	// ParameterName is the root parameter name and the prefix of every
	// generated element parameter. Empty means DefaultParameterName.
	ParameterName string

	// ApplyNestedOptions applies each collection level's filter, ordering
	// and paging before its nested map.
	ApplyNestedOptions bool
}

// BuildProjection compiles root's projection with default options.
func BuildProjection(root typeinfo.TypeDescriptor, selects []string, forest ExpansionForest) ([]*expr.Lambda, error) {
	return ProjectionOptions{}.Build(root, selects, forest)
}

// Build compiles the selectors that, applied together and merged, shape a
// root element into exactly the requested members.
//
// Every selector has the shape root -> object. The result holds, in order:
//   - one selector per top-level collection branch, mapping the collection
//     to object literals:
//     i => i.Orders.Select(i0 => new {Id = (object)i0.Id, Lines = i0.Lines.Select(i1 => new {...})})
//   - for top-level single-valued navigations, one selector per selected
//     scalar (i => i.Address.City) followed by the selectors of their
//     children, compiled by the same rules
//   - one selector per selected root scalar: i => (object)i.Id
//
// Inside a map, each level is an object literal with the level's selected
// scalars (all scalars when its select list is empty) and one field per
// child branch. Single-valued children become guarded literals that
// evaluate to nil when the navigation is nil.
//
// Element parameters are named <root>0, <root>1, ... from a counter scoped
// to this call, so names never repeat across nesting depth or branches.
func (o ProjectionOptions) Build(root typeinfo.TypeDescriptor, selects []string, forest ExpansionForest) ([]*expr.Lambda, error) {
	base := o.ParameterName
	if base == "" {
		base = DefaultParameterName
	}
	p := &projector{opts: o, names: &nameGenerator{prefix: base}}
	param := expr.Param(base, root)

	var selectors []*expr.Lambda
	for _, b := range groupBranches(forest) {
		sels, err := p.topLevel(param, param, root, b)
		if err != nil {
			return nil, fmt.Errorf("projection of %s: %w", b.node.MemberName, err)
		}
		selectors = append(selectors, sels...)
	}

	scalars, err := selectedScalars(root, selects)
	if err != nil {
		return nil, err
	}
	for _, m := range scalars {
		selectors = append(selectors, expr.Erased(param, expr.Property(param, m)))
	}
	return selectors, nil
}

// nameGenerator hands out parameter names prefix0, prefix1, ... Names
// cannot collide with the prefix itself or with each other.
type nameGenerator struct {
	prefix string
	next   int
}

func (g *nameGenerator) fresh() string {
	name := fmt.Sprintf("%s%d", g.prefix, g.next)
	g.next++
	return name
}

// branch is one node of the expansion tree rebuilt from a forest by
// grouping paths on shared prefixes.
type branch struct {
	node     ExpansionNode
	children []*branch
}

// groupBranches merges paths that share a prefix so every member appears
// once per level, in first-seen order.
func groupBranches(forest ExpansionForest) []*branch {
	var roots []*branch
	for _, path := range forest {
		level := &roots
		for _, node := range path {
			var found *branch
			for _, b := range *level {
				if b.node.MemberName == node.MemberName {
					found = b
					break
				}
			}
			if found == nil {
				found = &branch{node: node}
				*level = append(*level, found)
			}
			level = &found.children
		}
	}
	return roots
}

type projector struct {
	opts  ProjectionOptions
	names *nameGenerator
}

// topLevel compiles a branch reached from the root parameter without
// crossing a collection. parent is the access expression of the branch's
// declaring object and parentType its type.
func (p *projector) topLevel(root *expr.Parameter, parent expr.Expr, parentType typeinfo.TypeDescriptor, b *branch) ([]*expr.Lambda, error) {
	access, err := memberAccessFrom(parent, parentType, MemberPath{b.node.MemberName})
	if err != nil {
		return nil, err
	}

	if access.Type().IsCollection() {
		mapped, err := p.collection(access, b)
		if err != nil {
			return nil, err
		}
		return []*expr.Lambda{expr.Erased(root, mapped)}, nil
	}

	scalars, err := selectedScalars(access.Type(), b.node.Selects)
	if err != nil {
		return nil, err
	}
	var selectors []*expr.Lambda
	for _, m := range scalars {
		selectors = append(selectors, expr.Erased(root, expr.Property(access, m)))
	}
	for _, child := range b.children {
		sels, err := p.topLevel(root, access, access.Type(), child)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.node.MemberName, err)
		}
		selectors = append(selectors, sels...)
	}
	return selectors, nil
}

// collection maps source, a collection access, through a fresh element
// parameter: source.Select(iN => new {...}).
func (p *projector) collection(source expr.Expr, b *branch) (expr.Expr, error) {
	elem := source.Type().ElementType()

	if p.opts.ApplyNestedOptions {
		var err error
		source, err = applyLevelOptions(source, elem, b.node)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.node.MemberName, err)
		}
	}

	param := expr.Param(p.names.fresh(), elem)
	shape, err := p.shape(param, elem, b.node.Selects, b.children)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.node.MemberName, err)
	}
	return expr.SelectCall(source, expr.NewLambda(param, shape)), nil
}

// shape builds the object literal for target: selected scalars first, in
// declaration order, then one field per child branch.
func (p *projector) shape(target expr.Expr, t typeinfo.TypeDescriptor, selects []string, children []*branch) (*expr.New, error) {
	scalars, err := selectedScalars(t, selects)
	if err != nil {
		return nil, err
	}

	fields := make([]expr.Field, 0, len(scalars)+len(children))
	for _, m := range scalars {
		fields = append(fields, expr.Field{Name: m.Name, Value: expr.Box(expr.Property(target, m))})
	}

	for _, child := range children {
		access, err := memberAccessFrom(target, t, MemberPath{child.node.MemberName})
		if err != nil {
			return nil, err
		}

		var value expr.Expr
		if access.Type().IsCollection() {
			value, err = p.collection(access, child)
		} else {
			value, err = p.single(access, child)
		}
		if err != nil {
			return nil, err
		}
		fields = append(fields, expr.Field{Name: child.node.MemberName, Value: value})
	}
	return &expr.New{Fields: fields}, nil
}

// single shapes a single-valued navigation inside a map as a literal
// guarded by the navigation itself.
func (p *projector) single(access expr.Expr, b *branch) (expr.Expr, error) {
	shape, err := p.shape(access, access.Type(), b.node.Selects, b.children)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.node.MemberName, err)
	}
	shape.Guard = access
	return shape, nil
}

// applyLevelOptions applies a collection level's filter and order/page
// descriptors to source.
func applyLevelOptions(source expr.Expr, elem typeinfo.TypeDescriptor, node ExpansionNode) (expr.Expr, error) {
	if node.Filter != nil {
		predicate, err := FilterExpression(node.Filter.Clause, elem)
		if err != nil {
			return nil, err
		}
		if predicate != nil {
			source = expr.WhereCall(source, predicate)
		}
	}
	if node.OrderPage != nil {
		chain, err := BuildOrderChain(source, node.OrderPage.Steps, node.OrderPage.Page)
		if err != nil {
			return nil, err
		}
		if chain != nil {
			source = chain
		}
	}
	return source, nil
}

// selectedScalars returns t's scalar members named by selects (all of them
// when selects is empty). Every select must name some member of t;
// navigation names are accepted and skipped.
func selectedScalars(t typeinfo.TypeDescriptor, selects []string) ([]typeinfo.Member, error) {
	for _, s := range selects {
		if _, ok := t.Member(s); !ok {
			return nil, &UnknownMemberError{Type: t.Name(), Member: s}
		}
	}
	return typeinfo.ScalarMembers(t, selects), nil
}
