// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package koanf provides a configuration source backed by a [kf.Koanf] instance.
package koanf

import (
	"context"
	"fmt"

	"github.com/z5labs/strata/provider/dict"
	"github.com/z5labs/strata/schema"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	kf "github.com/knadh/koanf/v2"
)

// Delim is the key path delimiter used for instances created by this package.
const Delim = "."

// Provider reads configuration values from a koanf instance.
type Provider struct {
	load func() (*kf.Koanf, error)
}

// New returns a Provider over an already loaded koanf instance. The
// instance is read each time the Provider is loaded.
func New(k *kf.Koanf) *Provider {
	return &Provider{
		load: func() (*kf.Koanf, error) {
			return k, nil
		},
	}
}

// ParseError occurs when raw bytes cannot be parsed.
type ParseError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("failed to parse config bytes: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ParseError) Unwrap() error {
	return e.Cause
}

// Bytes returns a Provider which parses b with p when loaded.
// Empty input loads no values.
func Bytes(b []byte, p kf.Parser) *Provider {
	return &Provider{
		load: func() (*kf.Koanf, error) {
			k := kf.New(Delim)
			if len(b) == 0 {
				return k, nil
			}
			err := k.Load(rawbytes.Provider(b), p)
			if err != nil {
				return nil, ParseError{Cause: err}
			}
			return k, nil
		},
	}
}

// YAML is a short hand for [Bytes] with koanf's YAML parser.
func YAML(b []byte) *Provider {
	return Bytes(b, yaml.Parser())
}

// JSON is a short hand for [Bytes] with koanf's JSON parser.
func JSON(b []byte) *Provider {
	return Bytes(b, json.Parser())
}

// Load implements the strata.Provider interface.
func (p *Provider) Load(ctx context.Context, s *schema.Schema, strict bool) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k, err := p.load()
	if err != nil {
		return nil, err
	}
	return dict.New(k.Raw()).Load(ctx, s, strict)
}
