// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package file

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// InvalidYAMLError occurs if a file contains invalid YAML or its
// top level value is not a mapping.
type InvalidYAMLError struct {
	Path  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidYAMLError) Error() string {
	return fmt.Sprintf("invalid yaml in %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidYAMLError) Unwrap() error {
	return e.Cause
}

// YAML returns a Provider which reads the YAML mapping in the file at path.
// An empty file provides no values.
func YAML(path string, opts ...Option) *Provider {
	return newProvider(path, parseYAML, opts...)
}

func parseYAML(path string, b []byte) (map[string]any, error) {
	m := make(map[string]any)
	err := yaml.Unmarshal(b, &m)
	if err != nil {
		return nil, InvalidYAMLError{Path: path, Cause: err}
	}
	return normalize(m).(map[string]any), nil
}
