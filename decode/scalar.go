// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package decode

import (
	"reflect"
	"strconv"
	"time"

	"github.com/z5labs/strata/key"
	"github.com/z5labs/strata/schema"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Scalar reports whether values described by d can be written as a
// single string, e.g. an environment variable or a command line flag.
func Scalar(d *schema.Descriptor) bool {
	d = d.Unwrap()
	switch d.Kind {
	case schema.Primitive, schema.StringParsable, schema.Any:
		return true
	case schema.Structured:
		return d.Parsable
	default:
		return false
	}
}

// ParseScalar converts a string taken from a text only source into a
// raw value suitable for [Decode]. Types which parse themselves are
// passed through unchanged.
func ParseScalar(s string, d *schema.Descriptor, path key.Path) (any, error) {
	d = d.Unwrap()
	switch d.Kind {
	case schema.Any, schema.StringParsable:
		return s, nil
	case schema.Structured:
		if d.Parsable {
			return s, nil
		}
	case schema.Primitive:
		if len(d.Allowed) > 0 {
			return parseEnum(s, d, path)
		}
		v, err := parsePrimitive(s, d.Type)
		if err != nil {
			return nil, invalid(d, s, path, err)
		}
		return v, nil
	}
	return nil, invalid(d, s, path, nil)
}

func parseEnum(s string, d *schema.Descriptor, path key.Path) (any, error) {
	for _, a := range d.Allowed {
		v, err := parsePrimitive(s, reflect.TypeOf(a))
		if err != nil {
			continue
		}
		if v == a {
			return a, nil
		}
	}
	return nil, invalid(d, s, path, NotAllowedError{Allowed: d.Allowed})
}

func parsePrimitive(s string, t reflect.Type) (any, error) {
	if t == durationType {
		return time.ParseDuration(s)
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		out.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetFloat(f)
	default:
		return nil, UnsupportedScalarError{Type: t}
	}
	return out.Interface(), nil
}

// UnsupportedScalarError occurs when a primitive type has no string form.
type UnsupportedScalarError struct {
	Type reflect.Type
}

// Error implements the [builtin.error] interface.
func (e UnsupportedScalarError) Error() string {
	return "no string form for type: " + e.Type.String()
}
