// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package strata_test

import (
	"context"
	"fmt"
	"testing/fstest"
	"time"

	"github.com/z5labs/strata"
	"github.com/z5labs/strata/provider/args"
	"github.com/z5labs/strata/provider/env"
	"github.com/z5labs/strata/provider/file"
	"github.com/z5labs/strata/schema"
)

type Database struct {
	Host string `default:"localhost"`
	Port int    `default:"5432"`
}

type Config struct {
	Name     string
	Timeout  time.Duration `default:"5s"`
	Hosts    []string
	Database Database
}

func Example() {
	fsys := fstest.MapFS{
		"config.yaml": &fstest.MapFile{
			Data: []byte("name: api\nhosts: [a]\ndatabase:\n  host: db\n"),
		},
	}

	cfg, err := strata.Load[Config](
		context.Background(),
		[]strata.Provider{
			args.New(args.Args([]string{"--hosts", "b", "--timeout", "1s"})),
			env.New(env.Prefix("APP_"), env.Environ([]string{"APP_DATABASE_PORT=6543"})),
			file.YAML("config.yaml", file.FS(fsys)),
		},
		strata.Strict(true),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(cfg.Name, cfg.Timeout, cfg.Hosts)
	fmt.Println(cfg.Database.Host, cfg.Database.Port)
	// Output:
	// api 1s [a b]
	// db 6543
}

func ExampleProviderFunc() {
	defaults := strata.ProviderFunc(func(context.Context, *schema.Schema, bool) (map[string]any, error) {
		return map[string]any{"name": "fallback", "hosts": []any{}}, nil
	})

	cfg, err := strata.Load[Config](context.Background(), []strata.Provider{defaults})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(cfg.Name, cfg.Database.Host)
	// Output:
	// fallback localhost
}
