package typeinfo

import "fmt"

// scalar is a named literal type that is not backed by reflection.
type scalar struct {
	name  string
	value bool
}

var (
	Int    TypeDescriptor = scalar{name: "int", value: true}
	Int64  TypeDescriptor = scalar{name: "int64", value: true}
	Float  TypeDescriptor = scalar{name: "float64", value: true}
	String TypeDescriptor = scalar{name: "string"}
	Bool   TypeDescriptor = scalar{name: "bool", value: true}
	Time   TypeDescriptor = scalar{name: "time.Time", value: true}

	// Object is the erased result type of projection selectors.
	Object TypeDescriptor = scalar{name: "object"}
)

func (s scalar) Name() string                 { return s.name }
func (s scalar) Kind() Kind                   { return KindScalar }
func (s scalar) IsCollection() bool           { return false }
func (s scalar) ElementType() TypeDescriptor  { return nil }
func (s scalar) Member(string) (Member, bool) { return Member{}, false }
func (s scalar) Members() []Member            { return nil }
func (s scalar) IsScalar() bool               { return true }
func (s scalar) IsValueType() bool            { return s.value }

// sequence is a collection type created during expression construction,
// e.g. the result of a Select over a collection member.
type sequence struct {
	elem      TypeDescriptor
	queryable bool
}

// Sequence returns the collection type with the given element type.
// Queryable sequences are the deferred sources handed to a provider;
// plain sequences are in-memory collections such as navigation members.
func Sequence(elem TypeDescriptor, queryable bool) TypeDescriptor {
	return sequence{elem: elem, queryable: queryable}
}

// IsQueryable reports whether t is a queryable sequence.
func IsQueryable(t TypeDescriptor) bool {
	s, ok := t.(sequence)
	return ok && s.queryable
}

func (s sequence) Name() string {
	if s.queryable {
		return fmt.Sprintf("Queryable[%s]", s.elem.Name())
	}
	return "[]" + s.elem.Name()
}

func (s sequence) Kind() Kind                   { return KindCollection }
func (s sequence) IsCollection() bool           { return true }
func (s sequence) ElementType() TypeDescriptor  { return s.elem }
func (s sequence) Member(string) (Member, bool) { return Member{}, false }
func (s sequence) Members() []Member            { return nil }
func (s sequence) IsScalar() bool               { return false }
func (s sequence) IsValueType() bool            { return false }

// funcType is the signature of a single-parameter lambda.
type funcType struct {
	in, out TypeDescriptor
}

// Func returns the signature type in -> out.
func Func(in, out TypeDescriptor) TypeDescriptor {
	return funcType{in: in, out: out}
}

// FuncTypes splits a signature created by Func into its parameter and
// result types.
func FuncTypes(t TypeDescriptor) (in, out TypeDescriptor, ok bool) {
	f, ok := t.(funcType)
	if !ok {
		return nil, nil, false
	}
	return f.in, f.out, true
}

func (f funcType) Name() string {
	return fmt.Sprintf("func(%s) %s", f.in.Name(), f.out.Name())
}

func (f funcType) Kind() Kind                   { return KindFunc }
func (f funcType) IsCollection() bool           { return false }
func (f funcType) ElementType() TypeDescriptor  { return nil }
func (f funcType) Member(string) (Member, bool) { return Member{}, false }
func (f funcType) Members() []Member            { return nil }
func (f funcType) IsScalar() bool               { return false }
func (f funcType) IsValueType() bool            { return false }
