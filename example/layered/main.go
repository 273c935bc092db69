// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command layered prints its configuration after loading it from, in
// priority order, command line flags, LAYERED_ prefixed environment
// variables, a YAML file and built in defaults.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/z5labs/strata"
	"github.com/z5labs/strata/internal/slogfield"
	"github.com/z5labs/strata/provider/args"
	"github.com/z5labs/strata/provider/dict"
	"github.com/z5labs/strata/provider/env"
	"github.com/z5labs/strata/provider/file"
	"github.com/z5labs/strata/schema"

	"github.com/spf13/cobra"
)

type Level string

func (Level) Enumerate() []any {
	return []any{"debug", "info", "warn", "error"}
}

type Database struct {
	Host     string `default:"localhost"`
	Port     int    `default:"5432"`
	MaxConns *int
}

type Config struct {
	Name     string
	Level    Level         `default:"info"`
	Timeout  time.Duration `default:"30s"`
	Hosts    []string      `default:"[]"`
	Database Database
}

func main() {
	err := newCommand().ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "layered",
		Short:              "Print configuration loaded from flags, environment and files",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, argv []string) error {
			if len(argv) == 1 && (argv[0] == "-h" || argv[0] == "--help") {
				return usage(cmd)
			}
			return run(cmd.Context(), argv)
		},
	}
}

func usage(cmd *cobra.Command) error {
	s, err := schema.For[Config]()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cmd.Short)
	fmt.Fprintln(cmd.OutOrStdout(), args.New(args.Args(nil)).FlagSet(s).FlagUsages())
	return nil
}

func run(ctx context.Context, argv []string) (err error) {
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tp, shutdown, err := initTracerProvider(os.Getenv("LAYERED_TRACE") != "")
	if err != nil {
		return err
	}
	defer func() {
		serr := shutdown(context.Background())
		if serr != nil {
			log.Error("failed to shutdown tracer provider", slogfield.Error(serr))
		}
	}()

	path := os.Getenv("LAYERED_CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}

	cfg, err := strata.Load[Config](
		ctx,
		[]strata.Provider{
			args.New(args.Args(argv)),
			env.New(env.Prefix("LAYERED_"), env.AllowLists(true)),
			file.YAML(path, file.MustExist(false), file.Template()),
			dict.New(map[string]any{"name": "layered"}),
		},
		strata.Strict(true),
		strata.Logger(log),
		strata.TracerProvider(tp),
	)
	if err != nil {
		log.Error("failed to load configuration", slogfield.Error(err))
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
