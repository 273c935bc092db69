// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package strata

import (
	"context"
	"fmt"
	"reflect"

	"github.com/z5labs/strata/decode"
	"github.com/z5labs/strata/internal/slogfield"
	"github.com/z5labs/strata/internal/try"
	"github.com/z5labs/strata/key"
	"github.com/z5labs/strata/merge"
	"github.com/z5labs/strata/schema"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Provider represents a single source of configuration values
// e.g. a file, the process environment or command line arguments.
//
// A Provider returns a raw tree, shaped like the given schema, holding
// only the values it actually found. When strict is set, a Provider must
// fail with a [loaderr.StrictLoadingError] on any key it cannot map onto
// the schema.
type Provider interface {
	Load(ctx context.Context, s *schema.Schema, strict bool) (map[string]any, error)
}

// ProviderFunc is a functional implementation of the [Provider] interface.
type ProviderFunc func(context.Context, *schema.Schema, bool) (map[string]any, error)

// Load implements the [Provider] interface.
func (f ProviderFunc) Load(ctx context.Context, s *schema.Schema, strict bool) (map[string]any, error) {
	return f(ctx, s, strict)
}

// Load builds a T from the given providers. Providers are listed highest
// priority first. Values of higher priority providers override the values
// of lower priority ones, except maps which are merged and sequences which
// are concatenated.
func Load[T any](ctx context.Context, providers []Provider, opts ...Option) (T, error) {
	var cfg T
	err := LoadInto(ctx, &cfg, providers, opts...)
	return cfg, err
}

// InvalidTargetError occurs when [LoadInto] is not given a non-nil pointer.
type InvalidTargetError struct {
	Target any
}

// Error implements the [builtin.error] interface.
func (e InvalidTargetError) Error() string {
	return fmt.Sprintf("load target must be a non-nil pointer: %T", e.Target)
}

// LoadInto is like [Load] but decodes into the struct pointed to by target.
// target is left untouched when loading fails.
func LoadInto(ctx context.Context, target any, providers []Provider, opts ...Option) (err error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return InvalidTargetError{Target: target}
	}
	t := rv.Type().Elem()

	o := newOptions(opts...)
	spanCtx, span := o.tracer().Start(ctx, "Load", trace.WithAttributes(
		attribute.String("strata.type", t.String()),
		attribute.Int("strata.providers", len(providers)),
		attribute.Bool("strata.strict", o.strict),
	))
	defer span.End()
	defer func() {
		if err == nil {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.log.ErrorContext(spanCtx, "failed to load configuration", slogfield.Error(err))
	}()
	defer try.Recover(&err)

	d, err := schema.Of(t)
	if err != nil {
		return err
	}
	if d.Kind != schema.Structured {
		return schema.NotStructuredError{Type: t}
	}

	o.log.DebugContext(spanCtx, "extracted configuration schema", slogfield.Paths("paths", declared(d.Schema)))

	trees, err := collect(spanCtx, o, providers, d.Schema)
	if err != nil {
		return err
	}

	v, err := decode.Decode(merge.Merge(trees...), d, key.Path{})
	if err != nil {
		return err
	}
	rv.Elem().Set(v)

	o.log.DebugContext(spanCtx, "loaded configuration", slogfield.String("type", t.String()))
	return nil
}

func declared(s *schema.Schema) []key.Path {
	entries := s.Paths()
	paths := make([]key.Path, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}

// collect calls every provider, lowest priority first, and returns
// their trees in the given, highest priority first, order.
func collect(ctx context.Context, o *options, providers []Provider, s *schema.Schema) ([]map[string]any, error) {
	trees := make([]map[string]any, len(providers))
	for i := len(providers) - 1; i >= 0; i-- {
		tree, err := load(ctx, o, i, providers[i], s)
		if err != nil {
			return nil, err
		}
		trees[i] = tree
	}
	return trees, nil
}

func load(ctx context.Context, o *options, priority int, p Provider, s *schema.Schema) (map[string]any, error) {
	spanCtx, span := o.tracer().Start(ctx, "Provider.Load", trace.WithAttributes(
		attribute.String("strata.provider", fmt.Sprintf("%T", p)),
		attribute.Int("strata.priority", priority),
	))
	defer span.End()

	o.log.DebugContext(
		spanCtx,
		"loading configuration source",
		slogfield.Type("provider", p),
		slogfield.Int("priority", priority),
		slogfield.Bool("strict", o.strict),
	)

	tree, err := p.Load(spanCtx, s, o.strict)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return tree, nil
}
