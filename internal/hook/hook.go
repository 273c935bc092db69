// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package hook provides the mapstructure decode hooks shared by schema defaults and decoding.
package hook

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Parser mirrors schema.Parser so this package stays a leaf.
type Parser interface {
	ParseString(string) error
}

var (
	parserType          = reflect.TypeOf((*Parser)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	durationType        = reflect.TypeOf(time.Duration(0))
)

// CanParse reports whether values of t can be constructed from a string.
func CanParse(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return pt.Implements(parserType) || pt.Implements(textUnmarshalerType)
}

// ParseString constructs a new value of type t from s using the
// types [Parser] implementation, or else its [encoding.TextUnmarshaler].
func ParseString(t reflect.Type, s string) (reflect.Value, error) {
	ptr := reflect.New(t)
	switch x := ptr.Interface().(type) {
	case Parser:
		if err := x.ParseString(s); err != nil {
			return reflect.Value{}, err
		}
	case encoding.TextUnmarshaler:
		if err := x.UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, err
		}
	default:
		return reflect.Value{}, fmt.Errorf("%s cannot be parsed from a string", t)
	}
	return ptr.Elem(), nil
}

var errInvalidDecodeCondition = errors.New("invalid decode condition")

// TypeCoercionError occurs when attempting to decode a config
// value to a type which does not match the config value type,
// up to, coercion.
type TypeCoercionError struct {
	From  reflect.Type
	To    reflect.Type
	Cause error
}

// Error implements the error interface.
func (e TypeCoercionError) Error() string {
	return fmt.Sprintf("failed to coerce value from %s to %s: %s", e.From, e.To, e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e TypeCoercionError) Unwrap() error {
	return e.Cause
}

// Compose runs each hook in order, using the first one whose decode condition matches.
func Compose(hs ...mapstructure.DecodeHookFuncType) mapstructure.DecodeHookFuncValue {
	return func(f, t reflect.Value) (any, error) {
		if !f.IsValid() {
			return nil, nil
		}
		for _, h := range hs {
			v, err := h(f.Type(), t.Type(), f.Interface())
			if err == nil {
				return v, nil
			}
			if err == errInvalidDecodeCondition {
				continue
			}
			return nil, TypeCoercionError{
				From:  f.Type(),
				To:    t.Type(),
				Cause: err,
			}
		}
		return f.Interface(), nil
	}
}

// Strict returns the hooks used when decoding raw values: no weak
// string coercion, only string parsing for types which opt into it.
func Strict() mapstructure.DecodeHookFuncValue {
	return Compose(
		parserHookFunc(),
		timeDurationHookFunc(),
		numberRangeHookFunc(),
	)
}

func parserHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || f == t || !CanParse(t) {
			return nil, errInvalidDecodeCondition
		}
		v, err := ParseString(t, reflect.ValueOf(data).String())
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}
}

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != durationType || f == t {
			return nil, errInvalidDecodeCondition
		}

		v := reflect.ValueOf(data)
		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(v.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(v.Int()), nil
		default:
			return nil, errInvalidDecodeCondition
		}
	}
}

// numberRangeHookFunc rejects numbers which do not fit the target numeric
// type, and floats with a fractional part when decoding into integers.
// JSON numbers always arrive as float64.
func numberRangeHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if !isNumber(f.Kind()) || !isNumber(t.Kind()) {
			return nil, errInvalidDecodeCondition
		}

		v := reflect.ValueOf(data)
		out := reflect.New(t).Elem()
		var fits bool
		switch {
		case isFloat(f.Kind()):
			x := v.Float()
			if !isFloat(t.Kind()) && x != math.Trunc(x) {
				return nil, fmt.Errorf("%v is not an integer", x)
			}
			fits = floatFits(x, t)
		case isInt(f.Kind()):
			n := v.Int()
			switch {
			case isInt(t.Kind()):
				fits = !out.OverflowInt(n)
			case isUint(t.Kind()):
				fits = n >= 0 && !out.OverflowUint(uint64(n))
			default:
				fits = true
			}
		default:
			n := v.Uint()
			switch {
			case isInt(t.Kind()):
				fits = n <= math.MaxInt64 && !out.OverflowInt(int64(n))
			case isUint(t.Kind()):
				fits = !out.OverflowUint(n)
			default:
				fits = true
			}
		}
		if !fits {
			return nil, OverflowError{Value: data, Type: t}
		}
		return data, nil
	}
}

// OverflowError occurs when a number is outside the range of its target type.
type OverflowError struct {
	Value any
	Type  reflect.Type
}

// Error implements the [builtin.error] interface.
func (e OverflowError) Error() string {
	return fmt.Sprintf("%v overflows %s", e.Value, e.Type)
}

func floatFits(x float64, t reflect.Type) bool {
	switch {
	case isInt(t.Kind()):
		limit := math.Ldexp(1, t.Bits()-1)
		return x >= -limit && x < limit
	case isUint(t.Kind()):
		return x >= 0 && x < math.Ldexp(1, t.Bits())
	default:
		return !reflect.New(t).Elem().OverflowFloat(x)
	}
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}

// Decode assigns data to a freshly allocated value of type t using
// mapstructure with the [Strict] hooks.
func Decode(t reflect.Type, data any) (reflect.Value, error) {
	return decode(t, data, false)
}

// WeakDecode is like [Decode] but allows weak conversions
// e.g. "8080" to 8080. It is only used for struct tag defaults.
func WeakDecode(t reflect.Type, data any) (reflect.Value, error) {
	return decode(t, data, true)
}

func decode(t reflect.Type, data any, weak bool) (reflect.Value, error) {
	ptr := reflect.New(t)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "strata",
		Result:           ptr.Interface(),
		WeaklyTypedInput: weak,
		DecodeHook:       Strict(),
	})
	if err != nil {
		return reflect.Value{}, err
	}
	err = dec.Decode(data)
	if err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}
