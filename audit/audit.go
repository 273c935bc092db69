// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package audit finds raw configuration keys which do not map onto a schema.
package audit

import (
	"slices"

	"github.com/z5labs/strata/key"
	"github.com/z5labs/strata/loaderr"
	"github.com/z5labs/strata/schema"
)

// TreePaths returns the path of every key in tree, including keys
// holding nested maps. A parent is always listed before its children
// and sibling keys are listed in lexical order.
func TreePaths(tree map[string]any) []key.Path {
	return walk(tree, key.Path{}, nil)
}

func walk(m map[string]any, prefix key.Path, paths []key.Path) []key.Path {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)

	for _, name := range names {
		p := prefix.Append(key.Name(name))
		paths = append(paths, p)
		if sub, ok := m[name].(map[string]any); ok {
			paths = walk(sub, p, paths)
		}
	}
	return paths
}

// Extraneous returns the paths of tree which are not declared by s and
// whose parent is either the root or a declared struct. Keys below
// fields holding maps, sequences or free form values are never extraneous.
func Extraneous(s *schema.Schema, tree map[string]any) []key.Path {
	var extra []key.Path
	for _, p := range TreePaths(tree) {
		if _, declared := s.Lookup(p); declared {
			continue
		}
		if undeclaredChild(s, p) {
			extra = append(extra, p)
		}
	}
	return extra
}

func undeclaredChild(s *schema.Schema, p key.Path) bool {
	parent := p.Parent()
	if len(parent) == 0 {
		return true
	}
	f, ok := s.Lookup(parent)
	return ok && f.Type.Nested() != nil
}

// Check returns a [loaderr.StrictLoadingError] listing every extraneous
// path of tree when strict is set.
func Check(s *schema.Schema, tree map[string]any, strict bool) error {
	if !strict {
		return nil
	}
	extra := Extraneous(s, tree)
	if len(extra) == 0 {
		return nil
	}
	return loaderr.StrictPaths(extra)
}
