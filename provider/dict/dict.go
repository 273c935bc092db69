// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package dict provides a configuration source backed by an in memory map.
package dict

import (
	"context"

	"github.com/z5labs/strata/audit"
	"github.com/z5labs/strata/decode"
	"github.com/z5labs/strata/merge"
	"github.com/z5labs/strata/schema"
)

// Provider reads configuration values from a nested map[string]any.
type Provider struct {
	tree merge.Tree
}

// New returns a Provider over m. m is never modified.
func New(m map[string]any) *Provider {
	return &Provider{tree: m}
}

// Load implements the strata.Provider interface.
//
// Only the values of declared paths are kept. Every kept value must
// be decodable into its field type, otherwise a [loaderr.InvalidValueError]
// is returned.
func (p *Provider) Load(ctx context.Context, s *schema.Schema, strict bool) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := audit.Check(s, p.tree, strict)
	if err != nil {
		return nil, err
	}

	out := make(merge.Tree)
	for _, path := range audit.TreePaths(p.tree) {
		f, ok := s.Lookup(path)
		if !ok {
			continue
		}

		v, _ := p.tree.Get(path)
		if m, isMap := v.(map[string]any); isMap && f.Type.Nested() != nil {
			// children are visited next and fill in this map
			err = out.Set(path, make(map[string]any, len(m)))
			if err != nil {
				return nil, err
			}
			continue
		}

		if v != nil {
			_, err = decode.Decode(v, f.Type, path)
			if err != nil {
				return nil, err
			}
		}

		err = out.Set(path, v)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
