// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package merge

import (
	"fmt"

	"github.com/z5labs/strata/key"
)

// Tree is a raw configuration tree which sources build up value by value.
type Tree map[string]any

// UnknownKeyerError
type UnknownKeyerError struct {
	Key key.Keyer
}

// Error implements the error interface.
func (e UnknownKeyerError) Error() string {
	return fmt.Sprintf("tried setting config value with unknown key.Keyer: %s", e.Key.Key())
}

// EmptyPathError
type EmptyPathError struct {
	Value any
}

// Error implements the error interface.
func (e EmptyPathError) Error() string {
	return fmt.Sprintf("attempted to set value to an empty path: %v", e.Value)
}

// UnexpectedKeyValueTypeError represents the situation when
// a source tries nesting a value below a key which already
// holds a non map value.
type UnexpectedKeyValueTypeError struct {
	Key          string
	ExpectedType string
}

// Error implements the error interface.
func (e UnexpectedKeyValueTypeError) Error() string {
	return fmt.Sprintf("expected key value to be a %s: %s", e.ExpectedType, e.Key)
}

// Set inserts v at k, creating intermediate maps as needed.
func (t Tree) Set(k key.Keyer, v any) error {
	return set(t, k, v)
}

func set(m map[string]any, k key.Keyer, v any) error {
	switch x := k.(type) {
	case key.Name:
		m[string(x)] = v
	case key.Path:
		return setPath(m, x, v)
	default:
		return UnknownKeyerError{Key: k}
	}
	return nil
}

func setPath(m map[string]any, p key.Path, v any) error {
	if len(p) == 0 {
		return EmptyPathError{Value: v}
	}

	root := p[0]
	if len(p) == 1 {
		return set(m, root, v)
	}

	old, ok := m[root.Key()]
	if !ok || old == nil {
		old = make(map[string]any)
		m[root.Key()] = old
	}

	sub, ok := old.(map[string]any)
	if !ok {
		return UnexpectedKeyValueTypeError{
			Key:          root.Key(),
			ExpectedType: "map[string]any",
		}
	}
	return setPath(sub, p[1:], v)
}

// Get returns the value at p, descending through nested maps.
func (t Tree) Get(p key.Path) (any, bool) {
	if len(p) == 0 {
		return nil, false
	}
	var cur map[string]any = t
	for i, seg := range p {
		v, ok := cur[string(seg)]
		if !ok {
			return nil, false
		}
		if i == len(p)-1 {
			return v, true
		}
		cur, ok = v.(map[string]any)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}
