package typeinfo

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidModel is returned when a model document cannot be loaded.
var ErrInvalidModel = errors.New("invalid model")

var modelScalars = map[string]TypeDescriptor{
	"int":     Int,
	"int64":   Int64,
	"float":   Float,
	"float64": Float,
	"string":  String,
	"bool":    Bool,
	"time":    Time,
}

// Model is a set of object types declared in a YAML document rather than in
// Go code. Values of model types are map[string]any.
//
// Document shape (member order is preserved):
//
//	types:
//	  Customer:
//	    Id: int
//	    Name: string
//	    Address: Address
//	    Orders: "[]Order"
//	  Order:
//	    Id: int
//	    Total: float
//
// Member types are a scalar name (int, int64, float, string, bool, time),
// another declared type name, or "[]" followed by either.
type Model struct {
	types map[string]*modelType
	names []string
}

type modelType struct {
	name    string
	members []Member
}

// LoadModel parses and resolves a model document.
func LoadModel(data []byte) (*Model, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidModel)
	}

	root := doc.Content[0]
	typesNode := mappingValue(root, "types")
	if typesNode == nil || typesNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: missing types mapping", ErrInvalidModel)
	}

	m := &Model{types: make(map[string]*modelType)}

	// First pass: declare names so members can reference any type.
	type pending struct {
		name  string
		decls *yaml.Node
	}
	var all []pending
	for i := 0; i+1 < len(typesNode.Content); i += 2 {
		name := Normalize(typesNode.Content[i].Value)
		decls := typesNode.Content[i+1]
		if _, dup := m.types[name]; dup {
			return nil, fmt.Errorf("%w: type %s declared twice", ErrInvalidModel, name)
		}
		if _, clash := modelScalars[name]; clash {
			return nil, fmt.Errorf("%w: type %s shadows a scalar", ErrInvalidModel, name)
		}
		if decls.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: type %s: members must be a mapping (line %d)", ErrInvalidModel, name, decls.Line)
		}
		m.types[name] = &modelType{name: name}
		m.names = append(m.names, name)
		all = append(all, pending{name: name, decls: decls})
	}

	// Second pass: resolve member types.
	for _, p := range all {
		t := m.types[p.name]
		seen := make(map[string]bool)
		for i := 0; i+1 < len(p.decls.Content); i += 2 {
			memberName := Normalize(p.decls.Content[i].Value)
			typeExpr := strings.TrimSpace(p.decls.Content[i+1].Value)
			if seen[memberName] {
				return nil, fmt.Errorf("%w: %s.%s declared twice", ErrInvalidModel, p.name, memberName)
			}
			seen[memberName] = true

			mt, err := m.resolve(typeExpr)
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidModel, p.name, memberName, err)
			}
			t.members = append(t.members, Member{Name: memberName, Type: mt})
		}
	}

	return m, nil
}

// Type returns the descriptor for a declared type.
func (m *Model) Type(name string) (TypeDescriptor, bool) {
	name = Normalize(name)
	if _, ok := m.types[name]; !ok {
		return nil, false
	}
	return modelObject{model: m, name: name}, true
}

// Names returns the declared type names in document order.
func (m *Model) Names() []string {
	return append([]string(nil), m.names...)
}

func (m *Model) resolve(typeExpr string) (TypeDescriptor, error) {
	if rest, ok := strings.CutPrefix(typeExpr, "[]"); ok {
		elem, err := m.resolve(rest)
		if err != nil {
			return nil, err
		}
		return Sequence(elem, false), nil
	}
	if s, ok := modelScalars[typeExpr]; ok {
		return s, nil
	}
	if _, ok := m.types[Normalize(typeExpr)]; ok {
		return modelObject{model: m, name: Normalize(typeExpr)}, nil
	}
	return nil, fmt.Errorf("unknown type %q", typeExpr)
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// modelObject is the descriptor of a declared model type.
type modelObject struct {
	model *Model
	name  string
}

func (o modelObject) Name() string                { return o.name }
func (o modelObject) Kind() Kind                  { return KindObject }
func (o modelObject) IsCollection() bool          { return false }
func (o modelObject) ElementType() TypeDescriptor { return nil }
func (o modelObject) IsScalar() bool              { return false }
func (o modelObject) IsValueType() bool           { return false }

func (o modelObject) Member(name string) (Member, bool) {
	return lookup(o.Members(), name)
}

func (o modelObject) Members() []Member {
	return o.model.types[o.name].members
}
