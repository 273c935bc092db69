// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package key provides types for strongly typed keys in nested configuration trees.
package key

import (
	"slices"
	"strings"
)

// Keyer is a common interface all value key types must implement.
type Keyer interface {
	Key() string
}

// Name represents a single field name within a configuration tree.
type Name string

// Key implements the [Keyer] interface.
func (k Name) Key() string {
	return string(k)
}

// Path represents the ordered field names leading to a, possibly nested,
// configuration value. Two paths are equal iff their segments are equal.
type Path []Name

// Of constructs a Path from the given segments.
func Of(segments ...string) Path {
	p := make(Path, len(segments))
	for i, s := range segments {
		p[i] = Name(s)
	}
	return p
}

// Key implements the [Keyer] interface. Segments are joined with ".".
func (p Path) Key() string {
	return p.Join(".")
}

// String implements the [fmt.Stringer] interface.
func (p Path) String() string {
	return p.Key()
}

// Join joins the path segments with the given separator.
func (p Path) Join(sep string) string {
	return strings.Join(p.Strings(), sep)
}

// Strings returns the path segments as plain strings.
func (p Path) Strings() []string {
	ss := make([]string, len(p))
	for i := range len(p) {
		ss[i] = string(p[i])
	}
	return ss
}

// Append returns a new Path with n added to the end. The receiver is never modified.
func (p Path) Append(n Name) Path {
	q := make(Path, len(p), len(p)+1)
	copy(q, p)
	return append(q, n)
}

// Parent returns the path without its last segment. The parent of a
// single segment path is the empty (root) path.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[: len(p)-1 : len(p)-1]
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}
