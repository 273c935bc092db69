// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package file provides configuration sources backed by files.
//
// JSON and YAML files are parsed directly. Any other format understood
// by viper, e.g. TOML, HCL, INI, properties or dotenv, is supported via [Viper].
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/z5labs/strata/internal/try"
	"github.com/z5labs/strata/provider/dict"
	"github.com/z5labs/strata/schema"
)

type options struct {
	mustExist bool
	fs        fs.FS
	tmpl      []TemplateOption
	render    bool
}

// Option configures a file Provider.
type Option func(*options)

// MustExist controls whether a missing file fails loading. It defaults
// to true. A missing optional file provides no values.
func MustExist(b bool) Option {
	return func(o *options) {
		o.mustExist = b
	}
}

// FS sets the filesystem the file is read from. By default, paths are
// resolved like os.Open would.
func FS(fsys fs.FS) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// Template renders the file as a text/template before parsing it.
func Template(opts ...TemplateOption) Option {
	return func(o *options) {
		o.render = true
		o.tmpl = append(o.tmpl, opts...)
	}
}

type parseFunc func(path string, b []byte) (map[string]any, error)

// Provider reads configuration values from a single file.
type Provider struct {
	path  string
	parse parseFunc
	opts  options
}

func newProvider(path string, parse parseFunc, opts ...Option) *Provider {
	o := options{
		mustExist: true,
		fs:        osFS{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Provider{
		path:  path,
		parse: parse,
		opts:  o,
	}
}

// Load implements the strata.Provider interface.
func (p *Provider) Load(ctx context.Context, s *schema.Schema, strict bool) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := p.read()
	if err != nil {
		return nil, err
	}
	return dict.New(m).Load(ctx, s, strict)
}

func (p *Provider) read() (m map[string]any, err error) {
	f := NewReader(p.opts.fs, p.path)
	defer try.Close(&err, f)

	var r io.Reader = f
	if p.opts.render {
		r = NewTemplateRenderer(f, p.opts.tmpl...)
	}

	b, err := io.ReadAll(r)
	if errors.Is(err, fs.ErrNotExist) && !p.opts.mustExist {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	return p.parse(p.path, b)
}

// normalize turns maps with non string keys, as produced by YAML, into
// map[string]any so every source yields the same tree shape.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	default:
		return v
	}
}
