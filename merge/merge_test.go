// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package merge

import (
	"testing"

	"github.com/z5labs/strata/key"

	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	testCases := []struct {
		name     string
		trees    []map[string]any
		expected map[string]any
	}{
		{
			name:     "no trees",
			trees:    nil,
			expected: map[string]any{},
		},
		{
			name: "highest priority scalar wins",
			trees: []map[string]any{
				{"a": 2},
				{"a": 1},
			},
			expected: map[string]any{"a": 2},
		},
		{
			name: "maps are merged recursively",
			trees: []map[string]any{
				{"nested": map[string]any{"x": 1}},
				{"nested": map[string]any{"y": 2}},
			},
			expected: map[string]any{"nested": map[string]any{"x": 1, "y": 2}},
		},
		{
			name: "maps are merged recursively regardless of priority order",
			trees: []map[string]any{
				{"nested": map[string]any{"y": 2}},
				{"nested": map[string]any{"x": 1}},
			},
			expected: map[string]any{"nested": map[string]any{"x": 1, "y": 2}},
		},
		{
			name: "sequences are concatenated lower priority first",
			trees: []map[string]any{
				{"v": []any{3}},
				{"v": []any{1, 2}},
			},
			expected: map[string]any{"v": []any{1, 2, 3}},
		},
		{
			name: "typed sequences are concatenated",
			trees: []map[string]any{
				{"v": []string{"c"}},
				{"v": []any{"a", "b"}},
			},
			expected: map[string]any{"v": []any{"a", "b", "c"}},
		},
		{
			name: "sequences across three sources",
			trees: []map[string]any{
				{"v": []any{5}},
				{"v": []any{3, 4}},
				{"v": []any{1, 2}},
			},
			expected: map[string]any{"v": []any{1, 2, 3, 4, 5}},
		},
		{
			name: "typed maps are merged recursively",
			trees: []map[string]any{
				{"labels": map[string]any{"b": "2"}},
				{"labels": map[string]string{"a": "1"}},
			},
			expected: map[string]any{"labels": map[string]any{"a": "1", "b": "2"}},
		},
		{
			name: "typed maps are merged regardless of priority order",
			trees: []map[string]any{
				{"labels": map[string]string{"b": "2"}},
				{"labels": map[string]any{"a": "1", "b": "0"}},
			},
			expected: map[string]any{"labels": map[string]any{"a": "1", "b": "2"}},
		},
		{
			name: "maps with non string keys are replaced",
			trees: []map[string]any{
				{"ids": map[int]string{2: "b"}},
				{"ids": map[int]string{1: "a"}},
			},
			expected: map[string]any{"ids": map[int]string{2: "b"}},
		},
		{
			name: "mismatched shapes are replaced",
			trees: []map[string]any{
				{"a": "scalar"},
				{"a": map[string]any{"x": 1}},
			},
			expected: map[string]any{"a": "scalar"},
		},
		{
			name: "nil lower priority value is treated as absent",
			trees: []map[string]any{
				{"a": []any{1}},
				{"a": nil},
			},
			expected: map[string]any{"a": []any{1}},
		},
		{
			name: "keys only in lower priority trees are kept",
			trees: []map[string]any{
				{"a": 1},
				{"b": 2},
			},
			expected: map[string]any{"a": 1, "b": 2},
		},
		{
			name: "deeply nested scalars and sequences",
			trees: []map[string]any{
				{"s": map[string]any{"t": map[string]any{"port": 9090, "hosts": []any{"b"}}}},
				{"s": map[string]any{"t": map[string]any{"port": 8080, "hosts": []any{"a"}, "name": "x"}}},
			},
			expected: map[string]any{"s": map[string]any{"t": map[string]any{"port": 9090, "hosts": []any{"a", "b"}, "name": "x"}}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Merge(tc.trees...))
		})
	}

	t.Run("does not modify the source trees", func(t *testing.T) {
		low := map[string]any{"nested": map[string]any{"x": 1}, "v": []any{1}}
		high := map[string]any{"nested": map[string]any{"y": 2}, "v": []any{2}}

		merged := Merge(high, low)
		merged["nested"].(map[string]any)["z"] = 3

		require.Equal(t, map[string]any{"nested": map[string]any{"x": 1}, "v": []any{1}}, low)
		require.Equal(t, map[string]any{"nested": map[string]any{"y": 2}, "v": []any{2}}, high)
	})

	t.Run("does not modify typed source maps", func(t *testing.T) {
		low := map[string]any{"n": map[string]map[string]any{"x": {"a": 1}}}
		high := map[string]any{"n": map[string]any{"x": map[string]any{"b": 2}}}

		merged := Merge(high, low)

		require.Equal(t, map[string]any{"x": map[string]any{"a": 1, "b": 2}}, merged["n"])
		require.Equal(t, map[string]map[string]any{"x": {"a": 1}}, low["n"])
	})

	t.Run("is deterministic", func(t *testing.T) {
		trees := []map[string]any{
			{"a": 1, "n": map[string]any{"x": []any{1}}},
			{"a": 2, "n": map[string]any{"x": []any{0}, "y": true}},
		}

		require.Equal(t, Merge(trees...), Merge(trees...))
	})
}

func TestTree_Set(t *testing.T) {
	t.Run("creates intermediate maps", func(t *testing.T) {
		tree := make(Tree)
		require.NoError(t, tree.Set(key.Of("a", "b", "c"), 1))
		require.NoError(t, tree.Set(key.Of("a", "d"), 2))
		require.NoError(t, tree.Set(key.Name("e"), 3))

		require.Equal(t, Tree{
			"a": map[string]any{
				"b": map[string]any{"c": 1},
				"d": 2,
			},
			"e": 3,
		}, tree)
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if an unknown key.Keyer is used", func(t *testing.T) {
			tree := make(Tree)
			err := tree.Set(myKeyer("hello"), "world")

			var ierr UnknownKeyerError
			require.ErrorAs(t, err, &ierr)
			require.NotEmpty(t, ierr.Error())
		})

		t.Run("if an empty path is used", func(t *testing.T) {
			tree := make(Tree)
			err := tree.Set(key.Path{}, "world")

			var ierr EmptyPathError
			require.ErrorAs(t, err, &ierr)
			require.NotEmpty(t, ierr.Error())
		})

		t.Run("if a value would be nested below a scalar", func(t *testing.T) {
			tree := make(Tree)
			require.NoError(t, tree.Set(key.Name("hello"), "world"))

			err := tree.Set(key.Of("hello", "bob"), "world")

			var ierr UnexpectedKeyValueTypeError
			require.ErrorAs(t, err, &ierr)
			require.NotEmpty(t, ierr.Error())
		})
	})
}

func TestTree_Get(t *testing.T) {
	tree := Tree{
		"a": map[string]any{"b": 1, "c": nil},
		"d": "x",
	}

	testCases := []struct {
		name     string
		path     key.Path
		expected any
		found    bool
	}{
		{name: "top level", path: key.Of("d"), expected: "x", found: true},
		{name: "nested", path: key.Of("a", "b"), expected: 1, found: true},
		{name: "nested nil", path: key.Of("a", "c"), expected: nil, found: true},
		{name: "map", path: key.Of("a"), expected: map[string]any{"b": 1, "c": nil}, found: true},
		{name: "missing", path: key.Of("a", "z"), found: false},
		{name: "below a scalar", path: key.Of("d", "e"), found: false},
		{name: "empty", path: key.Path{}, found: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := tree.Get(tc.path)
			require.Equal(t, tc.found, ok)
			require.Equal(t, tc.expected, v)
		})
	}
}

type myKeyer string

func (myKeyer) Key() string {
	return "my key"
}
