// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package audit

import (
	"testing"

	"github.com/z5labs/strata/key"
	"github.com/z5labs/strata/loaderr"
	"github.com/z5labs/strata/schema"

	"github.com/stretchr/testify/require"
)

type database struct {
	Host string
	Port int
}

type config struct {
	Name     string
	Database database
	Replica  *database
	Labels   map[string]any
	Extra    any
}

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.For[config]()
	require.NoError(t, err)
	return s
}

func TestTreePaths(t *testing.T) {
	paths := TreePaths(map[string]any{
		"b": 1,
		"a": map[string]any{
			"y": []any{map[string]any{"ignored": true}},
			"x": map[string]any{"z": 1},
		},
	})

	require.Equal(t, []key.Path{
		key.Of("a"),
		key.Of("a", "x"),
		key.Of("a", "x", "z"),
		key.Of("a", "y"),
		key.Of("b"),
	}, paths)
}

func TestExtraneous(t *testing.T) {
	testCases := []struct {
		name     string
		tree     map[string]any
		expected []key.Path
	}{
		{
			name:     "declared keys only",
			tree:     map[string]any{"name": "x", "database": map[string]any{"host": "h"}},
			expected: nil,
		},
		{
			name:     "unknown top level key",
			tree:     map[string]any{"nmae": "x"},
			expected: []key.Path{key.Of("nmae")},
		},
		{
			name:     "unknown key below a struct",
			tree:     map[string]any{"database": map[string]any{"hots": "h"}},
			expected: []key.Path{key.Of("database", "hots")},
		},
		{
			name:     "unknown key below an optional struct",
			tree:     map[string]any{"replica": map[string]any{"user": "h"}},
			expected: []key.Path{key.Of("replica", "user")},
		},
		{
			name:     "keys below a mapping are free form",
			tree:     map[string]any{"labels": map[string]any{"team": "x"}},
			expected: nil,
		},
		{
			name:     "keys below an any field are free form",
			tree:     map[string]any{"extra": map[string]any{"a": map[string]any{"b": 1}}},
			expected: nil,
		},
		{
			name:     "only the outermost unknown key is reported",
			tree:     map[string]any{"unknown": map[string]any{"child": 1}},
			expected: []key.Path{key.Of("unknown")},
		},
		{
			name: "keys are reported in lexical order",
			tree: map[string]any{"z": 1, "a": 2, "database": map[string]any{"b": 3}},
			expected: []key.Path{
				key.Of("a"),
				key.Of("database", "b"),
				key.Of("z"),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Extraneous(mustSchema(t), tc.tree))
		})
	}
}

func TestCheck(t *testing.T) {
	tree := map[string]any{"nmae": "x", "database": map[string]any{"hots": "h"}}

	t.Run("ignores extraneous keys when not strict", func(t *testing.T) {
		require.NoError(t, Check(mustSchema(t), tree, false))
	})

	t.Run("will return a StrictLoadingError when strict", func(t *testing.T) {
		err := Check(mustSchema(t), tree, true)

		var serr loaderr.StrictLoadingError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, []string{"database.hots", "nmae"}, serr.Keys)
		require.Equal(t, "found extraneous keys: 'database.hots', 'nmae'", serr.Error())
	})

	t.Run("passes when strict and every key is declared", func(t *testing.T) {
		require.NoError(t, Check(mustSchema(t), map[string]any{"name": "x"}, true))
	})
}
