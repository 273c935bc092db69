// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package strata

import (
	"io"
	"log/slog"

	"github.com/z5labs/strata/internal/otelslog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	strict bool
	log    *slog.Logger
	tp     trace.TracerProvider
}

func newOptions(opts ...Option) *options {
	o := &options{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = otelslog.New(o.log)
	return o
}

func (o *options) tracer() trace.Tracer {
	tp := o.tp
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer("github.com/z5labs/strata")
}

// Option configures a single load.
type Option func(*options)

// Strict makes every provider reject keys which do not map onto the
// target type. Command line providers always reject unknown flags.
func Strict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// Logger sets the logger used to report loading progress. Logs are
// discarded by default.
func Logger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			return
		}
		o.log = l
	}
}

// TracerProvider sets the provider of the tracer used to trace loading.
// The global tracer provider is used by default.
func TracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tp = tp
	}
}
