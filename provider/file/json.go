// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package file

import (
	"encoding/json"
	"fmt"
)

// InvalidJSONError occurs if a file contains invalid JSON or its
// top level value is not an object.
type InvalidJSONError struct {
	Path  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidJSONError) Error() string {
	return fmt.Sprintf("invalid json in %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidJSONError) Unwrap() error {
	return e.Cause
}

// JSON returns a Provider which reads the JSON object in the file at path.
func JSON(path string, opts ...Option) *Provider {
	return newProvider(path, parseJSON, opts...)
}

func parseJSON(path string, b []byte) (map[string]any, error) {
	m := make(map[string]any)
	err := json.Unmarshal(b, &m)
	if err != nil {
		return nil, InvalidJSONError{Path: path, Cause: err}
	}
	return m, nil
}
