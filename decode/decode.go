// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package decode converts merged raw configuration trees into typed values.
package decode

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/z5labs/strata/internal/hook"
	"github.com/z5labs/strata/key"
	"github.com/z5labs/strata/loaderr"
	"github.com/z5labs/strata/schema"
)

// Into decodes raw into a new value of type T.
func Into[T any](raw map[string]any) (T, error) {
	var zero T
	d, err := schema.TypeOf[T]()
	if err != nil {
		return zero, err
	}
	v, err := Decode(raw, d, key.Path{})
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

// Decode converts raw into a value of the type described by d. The path
// is only used for error reporting. The first failure aborts decoding.
func Decode(raw any, d *schema.Descriptor, path key.Path) (reflect.Value, error) {
	if raw == nil && d.Kind != schema.Optional && d.Kind != schema.Any && d.Kind != schema.Union {
		return reflect.Value{}, invalid(d, raw, path, nil)
	}

	switch d.Kind {
	case schema.Structured:
		return decodeStruct(raw, d, path)
	case schema.Optional:
		return decodeOptional(raw, d, path)
	case schema.Union:
		return decodeUnion(raw, d, path)
	case schema.Sequence, schema.VariadicTuple:
		return decodeSequence(raw, d, path)
	case schema.FixedTuple:
		return decodeTuple(raw, d, path)
	case schema.Mapping:
		return decodeMapping(raw, d, path)
	case schema.StringParsable:
		return decodeParsable(raw, d, path)
	case schema.Any:
		return decodeAny(raw, d)
	case schema.Primitive:
		return decodePrimitive(raw, d, path)
	default:
		return reflect.Value{}, fmt.Errorf("unknown descriptor kind: %s", d.Kind)
	}
}

func invalid(d *schema.Descriptor, raw any, path key.Path, cause error) loaderr.InvalidValueError {
	return loaderr.InvalidValueError{
		Expected: d.Type,
		Value:    raw,
		Path:     path,
		Cause:    cause,
	}
}

// sameType reports whether raw already is a value of the described type,
// which happens for defaults and for sources built from Go values.
func sameType(raw any, d *schema.Descriptor) (reflect.Value, bool) {
	rv := reflect.ValueOf(raw)
	if !rv.IsValid() || rv.Type() != d.Type {
		return reflect.Value{}, false
	}
	return rv, true
}

func decodeStruct(raw any, d *schema.Descriptor, path key.Path) (reflect.Value, error) {
	if s, ok := raw.(string); ok && d.Parsable {
		v, err := hook.ParseString(d.Type, s)
		if err != nil {
			return reflect.Value{}, invalid(d, raw, path, err)
		}
		return v, nil
	}
	if v, ok := sameType(raw, d); ok {
		return v, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return reflect.Value{}, invalid(d, raw, path, nil)
	}

	out := reflect.New(d.Type).Elem()
	for _, f := range d.Schema.Fields {
		fp := path.Append(key.Name(f.Name))

		var (
			v   reflect.Value
			err error
		)
		fv, present := m[f.Name]
		if present {
			v, err = Decode(fv, f.Type, fp)
		} else {
			v, err = resolveDefault(f, fp)
		}
		if err != nil {
			return reflect.Value{}, err
		}
		out.FieldByIndex(f.Index).Set(v)
	}
	return out, nil
}

// resolveDefault applies, in order: the explicit default, the default
// factory, nil for optional fields and otherwise fails.
func resolveDefault(f *schema.Field, path key.Path) (reflect.Value, error) {
	switch {
	case f.HasDefault:
		if f.Default == nil {
			return reflect.Zero(f.Type.Type), nil
		}
		return clone(reflect.ValueOf(f.Default)), nil
	case f.DefaultFactory != nil:
		x := f.DefaultFactory()
		if x == nil {
			return reflect.Zero(f.Type.Type), nil
		}
		rv := reflect.ValueOf(x)
		if rv.Type().AssignableTo(f.Type.Type) {
			out := reflect.New(f.Type.Type).Elem()
			out.Set(rv)
			return out, nil
		}
		return Decode(x, f.Type, path)
	case f.Type.Kind == schema.Optional:
		return reflect.Zero(f.Type.Type), nil
	default:
		return reflect.Value{}, loaderr.MissingValueError{Path: path}
	}
}

func decodeOptional(raw any, d *schema.Descriptor, path key.Path) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(d.Type), nil
	}
	if v, ok := sameType(raw, d); ok {
		return v, nil
	}

	inner, err := Decode(raw, d.Elem, path)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(d.Elem.Type)
	ptr.Elem().Set(inner)
	return ptr, nil
}

func decodeUnion(raw any, d *schema.Descriptor, path key.Path) (reflect.Value, error) {
	if v, ok := sameType(raw, d); ok {
		return v, nil
	}

	var causes []error
	for i, m := range d.Members {
		v, err := Decode(raw, m, path)
		if err != nil {
			if !loaderr.IsMismatch(err) {
				return reflect.Value{}, err
			}
			causes = append(causes, err)
			continue
		}

		u := reflect.New(d.Type)
		u.Interface().(schema.UnionType).Set(i, v.Interface())
		return u.Elem(), nil
	}
	return reflect.Value{}, invalid(d, raw, path, errors.Join(causes...))
}

func sequenceOf(raw any) (reflect.Value, bool) {
	rv := reflect.ValueOf(raw)
	if !rv.IsValid() {
		return rv, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv, true
	default:
		return rv, false
	}
}

func indexPath(path key.Path, i int) key.Path {
	return path.Append(key.Name(strconv.Itoa(i)))
}

func decodeSequence(raw any, d *schema.Descriptor, path key.Path) (reflect.Value, error) {
	rv, ok := sequenceOf(raw)
	if !ok {
		return reflect.Value{}, invalid(d, raw, path, nil)
	}

	out := reflect.MakeSlice(d.Type, rv.Len(), rv.Len())
	for i := range rv.Len() {
		ev, err := Decode(rv.Index(i).Interface(), d.Elem, indexPath(path, i))
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(ev)
	}
	return out, nil
}

// ArityError occurs when a tuple receives the wrong number of elements.
type ArityError struct {
	Expected int
	Actual   int
}

// Error implements the [builtin.error] interface.
func (e ArityError) Error() string {
	return fmt.Sprintf("expected %d elements, got %d", e.Expected, e.Actual)
}

func decodeTuple(raw any, d *schema.Descriptor, path key.Path) (reflect.Value, error) {
	if v, ok := sameType(raw, d); ok {
		return v, nil
	}
	rv, ok := sequenceOf(raw)
	if !ok {
		return reflect.Value{}, invalid(d, raw, path, nil)
	}
	if rv.Len() != len(d.Members) {
		return reflect.Value{}, invalid(d, raw, path, ArityError{Expected: len(d.Members), Actual: rv.Len()})
	}

	out := reflect.New(d.Type).Elem()
	for i, m := range d.Members {
		ev, err := Decode(rv.Index(i).Interface(), m, indexPath(path, i))
		if err != nil {
			return reflect.Value{}, err
		}
		if d.Type.Kind() == reflect.Array {
			out.Index(i).Set(ev)
			continue
		}
		out.Field(d.TupleFields[i]).Set(ev)
	}
	return out, nil
}

func decodeMapping(raw any, d *schema.Descriptor, path key.Path) (reflect.Value, error) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map {
		return reflect.Value{}, invalid(d, raw, path, nil)
	}

	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return compareKeys(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})

	out := reflect.MakeMapWithSize(d.Type, len(keys))
	for _, k := range keys {
		kraw := k.Interface()
		kp := path.Append(key.Name(fmt.Sprint(kraw)))

		kv, err := decodeKey(kraw, d.Key, kp)
		if err != nil {
			return reflect.Value{}, err
		}
		vv, err := Decode(rv.MapIndex(k).Interface(), d.Elem, kp)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(kv, vv)
	}
	return out, nil
}

func compareKeys(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// decodeKey allows string keys for non string primitive key types since
// every text based source can only produce string keys.
func decodeKey(raw any, d *schema.Descriptor, path key.Path) (reflect.Value, error) {
	s, ok := raw.(string)
	if !ok || d.Kind != schema.Primitive || d.Type.Kind() == reflect.String {
		return Decode(raw, d, path)
	}
	x, err := ParseScalar(s, d, path)
	if err != nil {
		return reflect.Value{}, err
	}
	return Decode(x, d, path)
}

func decodeParsable(raw any, d *schema.Descriptor, path key.Path) (reflect.Value, error) {
	if v, ok := sameType(raw, d); ok {
		return v, nil
	}
	s, ok := raw.(string)
	if !ok {
		return reflect.Value{}, invalid(d, raw, path, nil)
	}
	v, err := hook.ParseString(d.Type, s)
	if err != nil {
		return reflect.Value{}, invalid(d, raw, path, err)
	}
	return v, nil
}

func decodeAny(raw any, d *schema.Descriptor) (reflect.Value, error) {
	out := reflect.New(d.Type).Elem()
	if raw != nil {
		out.Set(reflect.ValueOf(raw))
	}
	return out, nil
}

// NotAllowedError occurs when an enum value is not one of its allowed values.
type NotAllowedError struct {
	Allowed []any
}

// Error implements the [builtin.error] interface.
func (e NotAllowedError) Error() string {
	return fmt.Sprintf("value must be one of %v", e.Allowed)
}

func decodePrimitive(raw any, d *schema.Descriptor, path key.Path) (reflect.Value, error) {
	v, err := hook.Decode(d.Type, raw)
	if err != nil {
		return reflect.Value{}, invalid(d, raw, path, err)
	}
	if len(d.Allowed) > 0 && !slices.Contains(d.Allowed, v.Interface()) {
		return reflect.Value{}, invalid(d, raw, path, NotAllowedError{Allowed: d.Allowed})
	}
	return v, nil
}

// clone deep copies pointers, slices and maps so defaults held by
// a cached schema are never shared with a decoded value.
func clone(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		p := reflect.New(v.Type().Elem())
		p.Elem().Set(clone(v.Elem()))
		return p
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		s := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			s.Index(i).Set(clone(v.Index(i)))
		}
		return s
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		m := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			m.SetMapIndex(iter.Key(), clone(iter.Value()))
		}
		return m
	default:
		return v
	}
}
