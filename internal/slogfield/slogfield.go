// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield provides the log attributes shared across loading.
package slogfield

import (
	"fmt"
	"log/slog"

	"github.com/z5labs/strata/key"
)

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// Int returns an slog.Attr for a int.
func Int(k string, n int) slog.Attr {
	return slog.Int(k, n)
}

// Bool returns an slog.Attr for a bool.
func Bool(k string, b bool) slog.Attr {
	return slog.Bool(k, b)
}

// String returns an slog.Attr for a string.
func String(k, v string) slog.Attr {
	return slog.String(k, v)
}

// Type returns an slog.Attr holding the Go type name of v.
func Type(k string, v any) slog.Attr {
	return slog.String(k, fmt.Sprintf("%T", v))
}

// Paths returns an slog.Attr for configuration paths, rendered dotted.
func Paths(k string, ps []key.Path) slog.Attr {
	keys := make([]string, len(ps))
	for i, p := range ps {
		keys[i] = p.Key()
	}
	return slog.Any(k, keys)
}
