// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/z5labs/strata/internal/hook"
)

// Descriptor describes how raw configuration values map onto a Go type.
// Descriptors are immutable once returned by [Of].
type Descriptor struct {
	Kind Kind
	Type reflect.Type

	// Elem is the inner type of Optional, the element type of Sequence
	// and VariadicTuple, and the value type of Mapping.
	Elem *Descriptor

	// Key is the key type of Mapping.
	Key *Descriptor

	// Members holds the ordered member types of Union and FixedTuple.
	Members []*Descriptor

	// TupleFields holds the struct field index of each FixedTuple
	// member when the tuple is a struct embedding [Tuple].
	TupleFields []int

	// Schema is the nested schema of a Structured type.
	Schema *Schema

	// Parsable is set when the type can also be constructed from a string.
	Parsable bool

	// Allowed holds the permitted values of an [Enum] primitive.
	Allowed []any
}

// Nested returns the schema of a Structured type, looking through Optional.
func (d *Descriptor) Nested() *Schema {
	for d != nil && d.Kind == Optional {
		d = d.Elem
	}
	if d == nil || d.Kind != Structured {
		return nil
	}
	return d.Schema
}

// Unwrap returns the descriptor with any Optional layers removed.
func (d *Descriptor) Unwrap() *Descriptor {
	for d.Kind == Optional {
		d = d.Elem
	}
	return d
}

// String implements the [fmt.Stringer] interface.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%s)", d.Kind, d.Type)
}

// UnsupportedTypeError occurs when a type cannot be decoded from configuration.
type UnsupportedTypeError struct {
	Type reflect.Type
}

// Error implements the [builtin.error] interface.
func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported configuration type: %v", e.Type)
}

// CyclicTypeError occurs when a type refers back to itself.
type CyclicTypeError struct {
	Type reflect.Type
}

// Error implements the [builtin.error] interface.
func (e CyclicTypeError) Error() string {
	return fmt.Sprintf("cyclic configuration type: %s", e.Type)
}

var (
	unionType    = reflect.TypeOf((*UnionType)(nil)).Elem()
	tupleType    = reflect.TypeOf((*tupleMarker)(nil)).Elem()
	variadicType = reflect.TypeOf((*variadicMarker)(nil)).Elem()
	enumType     = reflect.TypeOf((*Enum)(nil)).Elem()
	markerType   = reflect.TypeOf(Tuple{})
)

var cache sync.Map

// Of classifies t. Results are cached by type identity and may be shared.
func Of(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, UnsupportedTypeError{}
	}
	c := &classifier{visiting: make(map[reflect.Type]bool)}
	return c.classify(t)
}

// TypeOf classifies the type parameter T.
func TypeOf[T any]() (*Descriptor, error) {
	return Of(reflect.TypeFor[T]())
}

type classifier struct {
	visiting map[reflect.Type]bool
}

func (c *classifier) classify(t reflect.Type) (*Descriptor, error) {
	if d, ok := cache.Load(t); ok {
		return d.(*Descriptor), nil
	}
	if c.visiting[t] {
		return nil, CyclicTypeError{Type: t}
	}
	c.visiting[t] = true
	defer delete(c.visiting, t)

	d, err := c.describe(t)
	if err != nil {
		return nil, err
	}
	actual, _ := cache.LoadOrStore(t, d)
	return actual.(*Descriptor), nil
}

func implements(t, iface reflect.Type) bool {
	return t.Implements(iface) || reflect.PointerTo(t).Implements(iface)
}

func (c *classifier) describe(t reflect.Type) (*Descriptor, error) {
	switch {
	case t.Kind() == reflect.Interface:
		if t.NumMethod() > 0 {
			return nil, UnsupportedTypeError{Type: t}
		}
		return &Descriptor{Kind: Any, Type: t}, nil
	case t.Kind() == reflect.Pointer:
		elem, err := c.classify(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: Optional, Type: t, Elem: elem}, nil
	case implements(t, unionType):
		return c.union(t)
	case t.Kind() == reflect.Struct && implements(t, tupleType):
		return c.structTuple(t)
	case t.Kind() == reflect.Array:
		return c.arrayTuple(t)
	case implements(t, variadicType):
		elem, err := c.classify(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: VariadicTuple, Type: t, Elem: elem}, nil
	case t.Kind() != reflect.Struct && hook.CanParse(t):
		return &Descriptor{Kind: StringParsable, Type: t, Parsable: true}, nil
	case t.Kind() == reflect.Slice:
		elem, err := c.classify(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: Sequence, Type: t, Elem: elem}, nil
	case t.Kind() == reflect.Map:
		return c.mapping(t)
	case t.Kind() == reflect.Struct:
		return c.structured(t)
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return primitive(t)
	default:
		return nil, UnsupportedTypeError{Type: t}
	}
}

func primitive(t reflect.Type) (*Descriptor, error) {
	d := &Descriptor{Kind: Primitive, Type: t}
	if !implements(t, enumType) {
		return d, nil
	}

	e, ok := reflect.Zero(t).Interface().(Enum)
	if !ok {
		e = reflect.New(t).Interface().(Enum)
	}
	for _, v := range e.Enumerate() {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || !rv.Type().ConvertibleTo(t) {
			return nil, MalformedTypeError{
				Type:   t,
				Reason: fmt.Sprintf("enum value %v is not convertible to %s", v, t),
			}
		}
		d.Allowed = append(d.Allowed, rv.Convert(t).Interface())
	}
	return d, nil
}

func (c *classifier) union(t reflect.Type) (*Descriptor, error) {
	u := reflect.New(t).Interface().(UnionType)
	members := u.Members()
	if len(members) == 0 {
		return nil, MalformedTypeError{Type: t, Reason: "union has no members"}
	}

	d := &Descriptor{Kind: Union, Type: t}
	for _, mt := range members {
		m, err := c.classify(mt)
		if err != nil {
			return nil, err
		}
		d.Members = append(d.Members, m)
	}
	return d, nil
}

func (c *classifier) structTuple(t reflect.Type) (*Descriptor, error) {
	d := &Descriptor{Kind: FixedTuple, Type: t}
	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Type == markerType || !sf.IsExported() {
			continue
		}
		m, err := c.classify(sf.Type)
		if err != nil {
			return nil, err
		}
		d.Members = append(d.Members, m)
		d.TupleFields = append(d.TupleFields, i)
	}
	return d, nil
}

func (c *classifier) arrayTuple(t reflect.Type) (*Descriptor, error) {
	elem, err := c.classify(t.Elem())
	if err != nil {
		return nil, err
	}
	d := &Descriptor{Kind: FixedTuple, Type: t, Elem: elem}
	for range t.Len() {
		d.Members = append(d.Members, elem)
	}
	return d, nil
}

func (c *classifier) mapping(t reflect.Type) (*Descriptor, error) {
	k, err := c.classify(t.Key())
	if err != nil {
		return nil, err
	}
	v, err := c.classify(t.Elem())
	if err != nil {
		return nil, err
	}
	return &Descriptor{Kind: Mapping, Type: t, Key: k, Elem: v}, nil
}

func (c *classifier) structured(t reflect.Type) (*Descriptor, error) {
	s, err := c.extract(t)
	if err != nil {
		return nil, err
	}

	parsable := hook.CanParse(t)
	if len(s.Fields) == 0 && parsable {
		return &Descriptor{Kind: StringParsable, Type: t, Parsable: true}, nil
	}
	return &Descriptor{Kind: Structured, Type: t, Schema: s, Parsable: parsable}, nil
}
