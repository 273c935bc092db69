// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package loaderr defines the errors reported while loading configuration.
package loaderr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/z5labs/strata/key"
)

// MissingValueError occurs when a required field has no value
// after consulting every source and resolving defaults.
type MissingValueError struct {
	Path key.Path
}

// Error implements the [builtin.error] interface.
func (e MissingValueError) Error() string {
	return fmt.Sprintf("missing value for key '%s'", e.Path.Key())
}

// InvalidValueError occurs when a raw value cannot be coerced to,
// or does not structurally conform to, the expected type.
type InvalidValueError struct {
	Expected reflect.Type
	Value    any
	Path     key.Path
	Cause    error
}

// Error implements the [builtin.error] interface.
func (e InvalidValueError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "expected an instance of type '%s', got '%v' of type '%T'", typeName(e.Expected), e.Value, e.Value)
	if len(e.Path) > 0 {
		fmt.Fprintf(&sb, " for key '%s'", e.Path.Key())
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %s", e.Cause)
	}
	return sb.String()
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidValueError) Unwrap() error {
	return e.Cause
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// StrictLoadingError occurs when a source contains keys which
// cannot be mapped to any declared field. Keys are dotted paths,
// except for command-line sources which report the raw flags.
type StrictLoadingError struct {
	Keys []string
}

// Error implements the [builtin.error] interface.
func (e StrictLoadingError) Error() string {
	quoted := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		quoted[i] = "'" + k + "'"
	}
	return "found extraneous keys: " + strings.Join(quoted, ", ")
}

// StrictPaths builds a StrictLoadingError from schema paths.
func StrictPaths(paths []key.Path) StrictLoadingError {
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = p.Key()
	}
	return StrictLoadingError{Keys: keys}
}

// IsMismatch reports whether err means a raw value does not fit a type.
// Only these errors allow union decoding to move on to the next member.
func IsMismatch(err error) bool {
	var missing MissingValueError
	if errors.As(err, &missing) {
		return true
	}
	var invalid InvalidValueError
	return errors.As(err, &invalid)
}
