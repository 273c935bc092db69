// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package merge combines raw configuration trees from multiple sources.
//
// Trees are given highest priority first. They are folded from the lowest
// priority to the highest using, for every key of the higher priority tree:
//   - keys missing from the accumulator are inserted
//   - two maps with string keys are merged recursively
//   - two sequences are concatenated, lower priority elements first
//   - anything else is replaced by the higher priority value
package merge

import "reflect"

// Merge folds the given trees, highest priority first, into a single tree.
// None of the given trees are modified.
func Merge(trees ...map[string]any) map[string]any {
	acc := make(map[string]any)
	for i := len(trees) - 1; i >= 0; i-- {
		mergeInto(acc, trees[i])
	}
	return acc
}

func mergeInto(acc, next map[string]any) {
	for k, nv := range next {
		av, ok := acc[k]
		if !ok || av == nil {
			acc[k] = clone(nv)
			continue
		}
		acc[k] = combine(av, nv)
	}
}

func combine(av, nv any) any {
	am, aok := asMapping(av)
	nm, nok := asMapping(nv)
	if aok && nok {
		mergeInto(am, nm)
		return am
	}

	as, aok := asSequence(av)
	ns, nok := asSequence(nv)
	if aok && nok {
		out := make([]any, 0, len(as)+len(ns))
		out = append(out, as...)
		for _, x := range ns {
			out = append(out, clone(x))
		}
		return out
	}
	return clone(nv)
}

// asMapping reports whether v is a map with string keys, and if so returns
// it as a map[string]any. Typed maps e.g. map[string]string are copied so
// the result may be modified without touching v.
func asMapping(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = clone(iter.Value().Interface())
	}
	return out, true
}

// asSequence reports whether v is a slice or array, and if so returns its
// elements. Any slice type is accepted since providers may produce typed
// slices e.g. []string.
func asSequence(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// clone deep copies maps and []any so the accumulator never aliases a source tree.
func clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = clone(e)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = clone(e)
		}
		return s
	default:
		return v
	}
}
