package typeinfo

import (
	"slices"

	"golang.org/x/text/unicode/norm"
)

// Kind classifies a TypeDescriptor.
type Kind int

const (
	KindScalar     Kind = iota // literal value: numbers, strings, bools, timestamps
	KindObject                 // structured value with named members
	KindCollection             // sequence of elements
	KindFunc                   // lambda signature
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindCollection:
		return "collection"
	case KindFunc:
		return "func"
	default:
		return "unknown"
	}
}

// TypeDescriptor is the reflection-level view of a type that the translator
// works against. It never exposes host values, only shape.
//
// Implementations:
//   - Of / For: backed by Go's reflect package
//   - Model: backed by a YAML model document (see LoadModel)
//   - Sequence, Func and the scalar descriptors: synthetic types produced
//     while building expressions
type TypeDescriptor interface {
	// Name is the stable display name, also used for type identity.
	Name() string

	// Kind reports the shape of the type.
	Kind() Kind

	// IsCollection reports whether the type is a sequence of elements.
	IsCollection() bool

	// ElementType returns the element type of a collection, nil otherwise.
	ElementType() TypeDescriptor

	// Member looks up a member by name. Names are NFC-normalized before
	// comparison; matching is case-sensitive.
	Member(name string) (Member, bool)

	// Members returns all members in declaration order.
	Members() []Member

	// IsScalar reports whether values of the type are literals rather
	// than navigations.
	IsScalar() bool

	// IsValueType reports whether values must be boxed when erased to
	// Object.
	IsValueType() bool
}

// Member is a named, typed member of an object type.
type Member struct {
	Name string
	Type TypeDescriptor
}

// Same reports whether two descriptors denote the same type.
func Same(a, b TypeDescriptor) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.Name() == b.Name()
}

// Current unwraps a collection to its element type and returns any other
// type unchanged.
func Current(t TypeDescriptor) TypeDescriptor {
	if t != nil && t.IsCollection() {
		return t.ElementType()
	}
	return t
}

// ScalarMembers returns the scalar members of t that are named in selects,
// in declaration order. An empty selects list selects every scalar member.
// Collections have no selectable members.
func ScalarMembers(t TypeDescriptor, selects []string) []Member {
	if t == nil || t.IsCollection() {
		return nil
	}

	wanted := make(map[string]bool, len(selects))
	for _, s := range selects {
		wanted[Normalize(s)] = true
	}

	var out []Member
	for _, m := range t.Members() {
		if !m.Type.IsScalar() {
			continue
		}
		if len(wanted) > 0 && !wanted[Normalize(m.Name)] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// MemberNames returns the names of the given members.
func MemberNames(members []Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

// Normalize returns the NFC form of an identifier. Query documents and
// model files may carry decomposed sequences for the same member name.
func Normalize(name string) string {
	return norm.NFC.String(name)
}

// lookup finds a member by normalized name.
func lookup(members []Member, name string) (Member, bool) {
	want := Normalize(name)
	i := slices.IndexFunc(members, func(m Member) bool {
		return Normalize(m.Name) == want
	})
	if i < 0 {
		return Member{}, false
	}
	return members[i], true
}
