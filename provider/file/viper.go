// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package file

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InvalidFileError occurs if viper fails to parse a file.
type InvalidFileError struct {
	Path   string
	Format string
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e InvalidFileError) Error() string {
	return fmt.Sprintf("invalid %s file %s: %s", e.Format, e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidFileError) Unwrap() error {
	return e.Cause
}

// Viper returns a Provider which parses the file at path with viper.
// The format is taken from the file extension e.g. "toml", "hcl",
// "ini", "properties" or "env". Viper lowercases every key.
func Viper(path string, opts ...Option) *Provider {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	return newProvider(path, viperParser(format), opts...)
}

func viperParser(format string) parseFunc {
	return func(path string, b []byte) (map[string]any, error) {
		v := viper.New()
		v.SetConfigType(format)
		err := v.ReadConfig(bytes.NewReader(b))
		if err != nil {
			return nil, InvalidFileError{Path: path, Format: format, Cause: err}
		}
		return normalize(v.AllSettings()).(map[string]any), nil
	}
}
