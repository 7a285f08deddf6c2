package typeinfo

import (
	"reflect"
	"time"
)

var (
	timeType  = reflect.TypeOf((*time.Time)(nil)).Elem()
	bytesType = reflect.TypeOf((*[]byte)(nil)).Elem()
)

// reflectType adapts a reflect.Type. It is a comparable value so
// descriptors can be compared and used as map keys.
type reflectType struct {
	t reflect.Type
}

// Of returns the descriptor for a Go type.
//
// Mapping:
//   - slices and arrays (except []byte) are collections
//   - structs, and pointers to structs, are objects whose members are the
//     exported, visible fields (promoted fields included)
//   - time.Time, []byte, basic kinds, maps and interfaces are scalars
//   - pointers to scalars are scalars
func Of(t reflect.Type) TypeDescriptor {
	return reflectType{t: t}
}

// For returns the descriptor for T.
func For[T any]() TypeDescriptor {
	return Of(reflect.TypeOf((*T)(nil)).Elem())
}

// GoType returns the reflect.Type behind a descriptor built with Of.
func GoType(t TypeDescriptor) (reflect.Type, bool) {
	rt, ok := t.(reflectType)
	if !ok {
		return nil, false
	}
	return rt.t, true
}

func (r reflectType) Name() string {
	return r.t.String()
}

func (r reflectType) Kind() Kind {
	return kindOf(r.t)
}

func kindOf(t reflect.Type) Kind {
	if t == timeType || t == bytesType {
		return KindScalar
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return KindCollection
	case reflect.Struct:
		return KindObject
	case reflect.Pointer:
		return kindOf(t.Elem())
	case reflect.Func:
		return KindFunc
	default:
		return KindScalar
	}
}

func (r reflectType) IsCollection() bool {
	return r.Kind() == KindCollection
}

func (r reflectType) ElementType() TypeDescriptor {
	t := r.t
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if kindOf(t) != KindCollection {
		return nil
	}
	return Of(t.Elem())
}

func (r reflectType) Member(name string) (Member, bool) {
	return lookup(r.Members(), name)
}

func (r reflectType) Members() []Member {
	t := r.t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return nil
	}

	var members []Member
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		members = append(members, Member{Name: f.Name, Type: Of(f.Type)})
	}
	return members
}

func (r reflectType) IsScalar() bool {
	return r.Kind() == KindScalar
}

func (r reflectType) IsValueType() bool {
	switch r.t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.Struct, reflect.Array:
		return true
	default:
		return false
	}
}
