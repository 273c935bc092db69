// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package strata loads typed configuration from layered sources.
//
// A configuration is a plain Go struct. Its shape, described by the
// [schema] package, decides which keys each [Provider] may produce:
//
//	type Config struct {
//	    Name     string        `default:"api"`
//	    Timeout  time.Duration `default:"5s"`
//	    Hosts    []string
//	    Database struct {
//	        Host string
//	        Port int `default:"5432"`
//	    }
//	}
//
// Providers are listed highest priority first and their trees are merged
// before decoding:
//
//   - scalars of a higher priority provider replace lower priority ones
//   - maps are merged key by key
//   - sequences are concatenated with lower priority elements first
//
// Fields which no provider sets fall back to their default, then to
// their default factory, then to nil when they are pointers. Any other
// unset field fails loading with a [loaderr.MissingValueError].
//
// # Basic Usage
//
//	cfg, err := strata.Load[Config](
//	    ctx,
//	    []strata.Provider{
//	        args.New(),
//	        env.New(env.Prefix("APP_")),
//	        file.YAML("config.yaml", file.MustExist(false)),
//	    },
//	    strata.Strict(true),
//	)
//
// # Observability
//
// Every load is traced with OpenTelemetry, using the global tracer
// provider unless [TracerProvider] is given, and reports its progress
// through [log/slog] when a [Logger] is given.
package strata
