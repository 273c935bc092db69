// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"fmt"
	"reflect"
)

// Parser is implemented by types which can be constructed from a single
// string. It must be implemented on the pointer receiver. Types implementing
// [encoding.TextUnmarshaler] are treated the same way.
type Parser interface {
	ParseString(string) error
}

// UnionType is implemented, on the pointer receiver, by types which hold
// exactly one value out of an ordered list of member types. Decoding tries
// each member in order and calls Set with the index of the first one
// which succeeds.
type UnionType interface {
	Members() []reflect.Type
	Set(i int, v any)
}

// Enum is implemented by primitive types which only allow a fixed set of values.
type Enum interface {
	Enumerate() []any
}

// DefaultFactories is implemented by structs whose fields need defaults
// computed at load time. The map is keyed by configuration field name.
type DefaultFactories interface {
	DefaultFactories() map[string]func() any
}

// Tuple marks a struct as a fixed length tuple when embedded. The remaining
// exported fields are the tuple elements, in declaration order.
//
//	type Point struct {
//	    schema.Tuple
//	    X int
//	    Y int
//	}
type Tuple struct{}

func (Tuple) tupleMarker() {}

type tupleMarker interface {
	tupleMarker()
}

// Variadic is a tuple of unknown length, decoded like a sequence of T.
type Variadic[T any] []T

func (Variadic[T]) variadicMarker() {}

type variadicMarker interface {
	variadicMarker()
}

// OneOf2 is a [UnionType] of two members.
type OneOf2[A, B any] struct {
	Index int
	A     A
	B     B
}

// Members implements the [UnionType] interface.
func (*OneOf2[A, B]) Members() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()}
}

// Set implements the [UnionType] interface.
func (u *OneOf2[A, B]) Set(i int, v any) {
	u.Index = i
	switch i {
	case 0:
		u.A, _ = v.(A)
	case 1:
		u.B, _ = v.(B)
	default:
		panic(fmt.Sprintf("union member index out of range: %d", i))
	}
}

// Value returns the member value which is set.
func (u OneOf2[A, B]) Value() any {
	if u.Index == 1 {
		return u.B
	}
	return u.A
}

// OneOf3 is a [UnionType] of three members.
type OneOf3[A, B, C any] struct {
	Index int
	A     A
	B     B
	C     C
}

// Members implements the [UnionType] interface.
func (*OneOf3[A, B, C]) Members() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()}
}

// Set implements the [UnionType] interface.
func (u *OneOf3[A, B, C]) Set(i int, v any) {
	u.Index = i
	switch i {
	case 0:
		u.A, _ = v.(A)
	case 1:
		u.B, _ = v.(B)
	case 2:
		u.C, _ = v.(C)
	default:
		panic(fmt.Sprintf("union member index out of range: %d", i))
	}
}

// Value returns the member value which is set.
func (u OneOf3[A, B, C]) Value() any {
	switch u.Index {
	case 1:
		return u.B
	case 2:
		return u.C
	default:
		return u.A
	}
}
