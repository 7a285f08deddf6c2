package queryopts

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/expandql/internal/typeinfo"
)

// ErrInvalidDocument is returned for query documents that fail to decode,
// fail schema validation, or cannot be turned into query options.
var ErrInvalidDocument = errors.New("invalid query document")

// Document is the YAML form of a query, the file-based stand-in for a
// query string:
//
//	filter:
//	  op: and
//	  args:
//	    - {op: eq, args: [{path: City}, {value: London}]}
//	    - {op: any, path: Orders, var: o, args: [{op: gt, args: [{path: o/Total}, {value: 20}]}]}
//	orderby:
//	  - count: Orders
//	  - path: Name
//	    desc: true
//	select: [Name, Orders]
//	expand:
//	  - path: Orders
//	    select: [Id, Total, Lines]
//	    orderby: [{path: Total}]
//	    top: 2
//	    expand:
//	      - path: Lines
//	top: 10
//
// Member paths use "/" between segments. In filters, a path whose first
// segment names an enclosing any/all variable is read from that variable;
// every other path is read from the implicit range variable.
type Document struct {
	Filter  *FilterDoc  `yaml:"filter,omitempty" json:"filter,omitempty"`
	OrderBy []OrderDoc  `yaml:"orderby,omitempty" json:"orderby,omitempty"`
	Select  []string    `yaml:"select,omitempty" json:"select,omitempty"`
	Expand  []ExpandDoc `yaml:"expand,omitempty" json:"expand,omitempty"`
	Skip    *int        `yaml:"skip,omitempty" json:"skip,omitempty"`
	Top     *int        `yaml:"top,omitempty" json:"top,omitempty"`
}

// FilterDoc is one filter expression node. Exactly one of Op, Path, Count
// or Value is meaningful; Value is used when the other three are empty.
type FilterDoc struct {
	Op    string      `yaml:"op,omitempty" json:"op,omitempty"`       // eq ne gt ge lt le and or not any all
	Path  string      `yaml:"path,omitempty" json:"path,omitempty"`   // member path, or the collection of any/all
	Count string      `yaml:"count,omitempty" json:"count,omitempty"` // collection whose size is the operand
	Value any         `yaml:"value,omitempty" json:"value,omitempty"`
	Var   string      `yaml:"var,omitempty" json:"var,omitempty"` // any/all range variable
	Args  []FilterDoc `yaml:"args,omitempty" json:"args,omitempty"`
}

// OrderDoc is one ordering key: a member path or the count of a
// collection.
type OrderDoc struct {
	Path  string `yaml:"path,omitempty" json:"path,omitempty"`
	Count string `yaml:"count,omitempty" json:"count,omitempty"`
	Desc  bool   `yaml:"desc,omitempty" json:"desc,omitempty"`
}

// ExpandDoc is one expanded navigation with its nested options.
type ExpandDoc struct {
	Path    string      `yaml:"path" json:"path"`
	Select  []string    `yaml:"select,omitempty" json:"select,omitempty"`
	Expand  []ExpandDoc `yaml:"expand,omitempty" json:"expand,omitempty"`
	Filter  *FilterDoc  `yaml:"filter,omitempty" json:"filter,omitempty"`
	OrderBy []OrderDoc  `yaml:"orderby,omitempty" json:"orderby,omitempty"`
	Skip    *int        `yaml:"skip,omitempty" json:"skip,omitempty"`
	Top     *int        `yaml:"top,omitempty" json:"top,omitempty"`
}

// LoadDocument decodes and validates a YAML query document.
// Unknown keys are rejected.
func LoadDocument(data []byte) (*Document, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// Options converts the document into query options against root.
//
// Member paths are classified by walking root's type graph. Segments that
// do not resolve are kept as plain property accesses so the translator
// reports them with full context.
func (d *Document) Options(root typeinfo.TypeDescriptor) (*QueryOptions, error) {
	opts := &QueryOptions{Skip: d.Skip, Top: d.Top}

	if d.Filter != nil {
		filter, err := filterClause(d.Filter, root)
		if err != nil {
			return nil, err
		}
		opts.Filter = filter
	}

	orderBy, err := orderByClause(d.OrderBy, root)
	if err != nil {
		return nil, err
	}
	opts.OrderBy = orderBy

	if len(d.Select) > 0 || len(d.Expand) > 0 {
		se, err := selectExpand(d.Select, d.Expand, root)
		if err != nil {
			return nil, err
		}
		opts.SelectExpand = se
	}
	return opts, nil
}

func selectExpand(selects []string, expands []ExpandDoc, parent typeinfo.TypeDescriptor) (*SelectExpandClause, error) {
	clause := &SelectExpandClause{AllSelected: len(selects) == 0}
	for _, s := range selects {
		clause.SelectedItems = append(clause.SelectedItems, &PathSelectItem{Path: SplitPath(s)})
	}

	current := typeinfo.Current(parent)
	for _, e := range expands {
		path := SplitPath(e.Path)
		if len(path) == 0 {
			return nil, fmt.Errorf("%w: expand with empty path", ErrInvalidDocument)
		}

		var memberType typeinfo.TypeDescriptor
		if current != nil {
			if m, ok := current.Member(path[0]); ok {
				memberType = m.Type
			}
		}

		item := &ExpandedNavigationSelectItem{Path: path, Skip: e.Skip, Top: e.Top}
		if len(e.Select) > 0 || len(e.Expand) > 0 {
			nested, err := selectExpand(e.Select, e.Expand, memberType)
			if err != nil {
				return nil, err
			}
			item.SelectAndExpand = nested
		}
		if e.Filter != nil {
			filter, err := filterClause(e.Filter, typeinfo.Current(memberType))
			if err != nil {
				return nil, fmt.Errorf("expand %s: %w", e.Path, err)
			}
			item.Filter = filter
		}
		orderBy, err := orderByClause(e.OrderBy, typeinfo.Current(memberType))
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", e.Path, err)
		}
		item.OrderBy = orderBy

		clause.SelectedItems = append(clause.SelectedItems, item)
	}
	return clause, nil
}

func orderByClause(docs []OrderDoc, elem typeinfo.TypeDescriptor) (*OrderByClause, error) {
	var head, tail *OrderByClause
	for _, o := range docs {
		var node Node
		switch {
		case o.Path != "" && o.Count != "":
			return nil, fmt.Errorf("%w: orderby key sets both path and count", ErrInvalidDocument)
		case o.Path != "":
			node = accessChain(&RangeVariableNode{Name: ImplicitRangeVariable}, elem, SplitPath(o.Path))
		case o.Count != "":
			node = &CountNode{Source: accessChain(&RangeVariableNode{Name: ImplicitRangeVariable}, elem, SplitPath(o.Count))}
		default:
			return nil, fmt.Errorf("%w: orderby key needs a path or count", ErrInvalidDocument)
		}

		clause := &OrderByClause{Expression: node, RangeVariable: ImplicitRangeVariable}
		if o.Desc {
			clause.Direction = Descending
		}
		if head == nil {
			head = clause
		} else {
			tail.ThenBy = clause
		}
		tail = clause
	}
	return head, nil
}

func filterClause(doc *FilterDoc, elem typeinfo.TypeDescriptor) (*FilterClause, error) {
	it := &RangeVariableNode{Name: ImplicitRangeVariable}
	scope := map[string]scoped{ImplicitRangeVariable: {node: it, t: elem}}

	node, err := filterNode(doc, scope, it, elem)
	if err != nil {
		return nil, err
	}
	return &FilterClause{Expression: node, RangeVariable: ImplicitRangeVariable}, nil
}

// scoped is a range variable visible inside a filter.
type scoped struct {
	node Node
	t    typeinfo.TypeDescriptor
}

func filterNode(doc *FilterDoc, scope map[string]scoped, it Node, elem typeinfo.TypeDescriptor) (Node, error) {
	resolve := func(path string) Node {
		segments := SplitPath(path)
		if len(segments) > 1 {
			if v, ok := scope[segments[0]]; ok {
				return accessChain(v.node, v.t, segments[1:])
			}
		}
		return accessChain(it, elem, segments)
	}

	switch doc.Op {
	case "":
		switch {
		case doc.Path != "":
			return resolve(doc.Path), nil
		case doc.Count != "":
			return &CountNode{Source: resolve(doc.Count)}, nil
		default:
			return &ConstantNode{Value: doc.Value}, nil
		}

	case "not":
		if len(doc.Args) != 1 {
			return nil, fmt.Errorf("%w: not takes 1 argument, got %d", ErrInvalidDocument, len(doc.Args))
		}
		operand, err := filterNode(&doc.Args[0], scope, it, elem)
		if err != nil {
			return nil, err
		}
		return &UnaryOperatorNode{Op: Not, Operand: operand}, nil

	case "any", "all":
		if doc.Path == "" {
			return nil, fmt.Errorf("%w: %s needs a collection path", ErrInvalidDocument, doc.Op)
		}
		source := resolve(doc.Path)

		var body Node
		if len(doc.Args) > 1 {
			return nil, fmt.Errorf("%w: %s takes at most 1 argument, got %d", ErrInvalidDocument, doc.Op, len(doc.Args))
		}
		if len(doc.Args) == 1 {
			if doc.Var == "" {
				return nil, fmt.Errorf("%w: %s with a predicate needs var", ErrInvalidDocument, doc.Op)
			}
			inner := make(map[string]scoped, len(scope)+1)
			for k, v := range scope {
				inner[k] = v
			}
			inner[doc.Var] = scoped{node: &RangeVariableNode{Name: doc.Var}, t: elementOf(scope, doc.Path, elem)}

			var err error
			body, err = filterNode(&doc.Args[0], inner, it, elem)
			if err != nil {
				return nil, err
			}
		}
		if doc.Op == "any" {
			return &AnyNode{Source: source, RangeVariable: doc.Var, Body: body}, nil
		}
		return &AllNode{Source: source, RangeVariable: doc.Var, Body: body}, nil
	}

	op, ok := ParseBinaryOperator(doc.Op)
	if !ok {
		return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidDocument, doc.Op)
	}
	if len(doc.Args) != 2 {
		return nil, fmt.Errorf("%w: %s takes 2 arguments, got %d", ErrInvalidDocument, doc.Op, len(doc.Args))
	}
	left, err := filterNode(&doc.Args[0], scope, it, elem)
	if err != nil {
		return nil, err
	}
	right, err := filterNode(&doc.Args[1], scope, it, elem)
	if err != nil {
		return nil, err
	}
	return &BinaryOperatorNode{Op: op, Left: left, Right: right}, nil
}

// elementOf returns the element type of the collection at path, or nil if
// it does not resolve.
func elementOf(scope map[string]scoped, path string, elem typeinfo.TypeDescriptor) typeinfo.TypeDescriptor {
	segments := SplitPath(path)
	t := elem
	if len(segments) > 1 {
		if v, ok := scope[segments[0]]; ok {
			t, segments = v.t, segments[1:]
		}
	}
	for _, s := range segments {
		t = typeinfo.Current(t)
		if t == nil {
			return nil
		}
		m, ok := t.Member(s)
		if !ok {
			return nil
		}
		t = m.Type
	}
	if t == nil || !t.IsCollection() {
		return nil
	}
	return t.ElementType()
}

// accessChain builds the access node chain for segments read from source,
// whose type is t (nil when unknown).
func accessChain(source Node, t typeinfo.TypeDescriptor, segments []string) Node {
	node := source
	for _, s := range segments {
		var member typeinfo.TypeDescriptor
		if t != nil && !t.IsCollection() {
			if m, ok := t.Member(s); ok {
				member = m.Type
			}
		}

		switch {
		case member == nil || member.IsScalar():
			node = &SingleValuePropertyAccessNode{Source: node, Property: s}
		case member.IsCollection() && member.ElementType().IsScalar():
			node = &CollectionPropertyAccessNode{Source: node, Property: s}
		case member.IsCollection():
			node = &CollectionNavigationNode{Source: node, NavigationProperty: s}
		default:
			node = &SingleNavigationNode{Source: node, NavigationProperty: s}
		}
		t = member
	}
	return node
}

// SplitPath splits a member path on "/" (or "." when no "/" is present).
func SplitPath(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	sep := "/"
	if !strings.Contains(path, "/") {
		sep = "."
	}
	parts := strings.Split(path, sep)
	for i := range parts {
		parts[i] = typeinfo.Normalize(strings.TrimSpace(parts[i]))
	}
	return parts
}
