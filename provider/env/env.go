// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package env provides a configuration source backed by environment variables.
package env

import (
	"context"
	"os"
	"strings"

	"github.com/z5labs/strata/decode"
	"github.com/z5labs/strata/key"
	"github.com/z5labs/strata/loaderr"
	"github.com/z5labs/strata/merge"
	"github.com/z5labs/strata/schema"
)

// NameFunc derives the variable name of a configuration path.
type NameFunc func(key.Path) string

// VariableName joins the path segments with underscores and upper
// cases the result e.g. database.host becomes DATABASE_HOST.
func VariableName(p key.Path) string {
	return strings.ToUpper(p.Join("_"))
}

// Option configures a Provider.
type Option func(*Provider)

// Prefix is prepended, as is, to every variable name.
func Prefix(prefix string) Option {
	return func(p *Provider) {
		p.prefix = prefix
	}
}

// AllowLists enables reading sequences and tuples of scalars from a
// single variable holding separated values.
func AllowLists(b bool) Option {
	return func(p *Provider) {
		p.allowLists = b
	}
}

// ListSeparator sets the separator of list values. It defaults to ",".
func ListSeparator(sep string) Option {
	return func(p *Provider) {
		p.sep = sep
	}
}

// Name overrides how variable names are derived from configuration paths.
func Name(f NameFunc) Option {
	return func(p *Provider) {
		p.name = f
	}
}

// Environ sets the "KEY=value" pairs to read from instead of the
// process environment.
func Environ(environ []string) Option {
	return func(p *Provider) {
		p.environ = environ
	}
}

// Provider reads configuration values from environment variables.
// Only fields holding a scalar, or a list of scalars when lists are
// allowed, can be set. The environment is never audited for extraneous
// variables, even in strict mode.
type Provider struct {
	prefix     string
	allowLists bool
	sep        string
	name       NameFunc
	environ    []string
	vars       map[string]string
}

// New returns a Provider over a snapshot of the process environment
// taken now, unless [Environ] is given.
func New(opts ...Option) *Provider {
	p := &Provider{
		sep:  ",",
		name: VariableName,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.environ == nil {
		p.environ = os.Environ()
	}
	p.vars = make(map[string]string, len(p.environ))
	for _, pair := range p.environ {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		p.vars[k] = v
	}
	return p
}

// Load implements the strata.Provider interface.
func (p *Provider) Load(ctx context.Context, s *schema.Schema, strict bool) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree := make(merge.Tree)
	for _, e := range s.Paths() {
		if !p.supported(e.Field.Type) {
			continue
		}

		raw, ok := p.vars[p.prefix+p.name(e.Path)]
		if !ok {
			continue
		}

		v, err := p.convert(raw, e.Field.Type, e.Path)
		if err != nil {
			return nil, err
		}

		err = tree.Set(e.Path, v)
		if err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func (p *Provider) supported(d *schema.Descriptor) bool {
	if decode.Scalar(d) {
		return true
	}
	if !p.allowLists {
		return false
	}

	d = d.Unwrap()
	switch d.Kind {
	case schema.Sequence, schema.VariadicTuple:
		return decode.Scalar(d.Elem)
	case schema.FixedTuple:
		for _, m := range d.Members {
			if !decode.Scalar(m) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (p *Provider) convert(raw string, d *schema.Descriptor, path key.Path) (any, error) {
	if decode.Scalar(d) {
		return decode.ParseScalar(raw, d, path)
	}

	d = d.Unwrap()
	values := strings.Split(raw, p.sep)
	elems := make([]*schema.Descriptor, len(values))
	switch d.Kind {
	case schema.FixedTuple:
		if len(values) != len(d.Members) {
			return nil, loaderr.InvalidValueError{
				Expected: d.Type,
				Value:    raw,
				Path:     path,
				Cause:    decode.ArityError{Expected: len(d.Members), Actual: len(values)},
			}
		}
		copy(elems, d.Members)
	default:
		for i := range elems {
			elems[i] = d.Elem
		}
	}

	out := make([]any, len(values))
	for i, s := range values {
		v, err := decode.ParseScalar(s, elems[i], path)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
