// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package args provides a configuration source backed by command line flags.
//
// Every supported field gets a long flag named after its path, e.g.
// database.max_conns becomes --database-max-conns:
//   - bool fields are switches which need no value
//   - scalar fields take exactly one value
//   - sequences take one element per repetition of the flag
//   - fixed length tuples take all of their elements after a single flag
//
// Unknown flags and positional arguments always fail loading with a
// [loaderr.StrictLoadingError], whether strict mode is set or not.
package args

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/z5labs/strata/decode"
	"github.com/z5labs/strata/key"
	"github.com/z5labs/strata/loaderr"
	"github.com/z5labs/strata/merge"
	"github.com/z5labs/strata/schema"

	"github.com/spf13/pflag"
)

// NameFunc derives the flag name, without leading dashes, of a configuration path.
type NameFunc func(key.Path) string

// FlagName joins the path segments with dashes and replaces
// underscores with dashes.
func FlagName(p key.Path) string {
	return strings.ReplaceAll(p.Join("-"), "_", "-")
}

// Option configures a Provider.
type Option func(*Provider)

// Args sets the arguments to parse instead of os.Args[1:].
func Args(args []string) Option {
	return func(p *Provider) {
		p.args = args
	}
}

// Name overrides how flag names are derived from configuration paths.
func Name(f NameFunc) Option {
	return func(p *Provider) {
		p.name = f
	}
}

// Provider reads configuration values from command line flags.
type Provider struct {
	args []string
	name NameFunc
}

// New returns a Provider over os.Args[1:], as of now, unless [Args] is given.
func New(opts ...Option) *Provider {
	p := &Provider{
		name: FlagName,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.args == nil {
		p.args = append([]string(nil), os.Args[1:]...)
	}
	return p
}

// ParseError occurs when the flags cannot be parsed e.g. a flag is missing its value.
type ParseError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("failed to parse command line flags: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ParseError) Unwrap() error {
	return e.Cause
}

// MissingValueError occurs when a flag which requires a value is
// directly followed by another flag.
type MissingValueError struct {
	Flag string
}

// Error implements the [builtin.error] interface.
func (e MissingValueError) Error() string {
	return "flag needs an argument: " + e.Flag
}

type flag struct {
	path   key.Path
	value  value
	isBool bool
	tuple  *tupleValue
}

// FlagSet returns the flags a Provider would define for s, e.g. for
// printing usage.
func (p *Provider) FlagSet(s *schema.Schema) *pflag.FlagSet {
	fs, _ := p.flagSet(s)
	return fs
}

func (p *Provider) flagSet(s *schema.Schema) (*pflag.FlagSet, map[string]*flag) {
	fs := pflag.NewFlagSet("strata", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	flags := make(map[string]*flag)
	for _, e := range s.Paths() {
		f := newFlag(e)
		if f == nil {
			continue
		}

		name := p.name(e.Path)
		pf := fs.VarPF(f.value, name, "", fmt.Sprintf("sets %s", e.Path.Key()))
		if f.isBool {
			pf.NoOptDefVal = "true"
		}
		flags[name] = f
	}
	return fs, flags
}

func newFlag(e schema.Entry) *flag {
	d := e.Field.Type
	if decode.Scalar(d) {
		return &flag{
			path:   e.Path,
			value:  &scalarValue{d: d, path: e.Path},
			isBool: d.Unwrap().Type.Kind() == reflect.Bool,
		}
	}

	u := d.Unwrap()
	switch u.Kind {
	case schema.Sequence, schema.VariadicTuple:
		if !decode.Scalar(u.Elem) {
			return nil
		}
		return &flag{
			path:  e.Path,
			value: &listValue{d: u, path: e.Path},
		}
	case schema.FixedTuple:
		for _, m := range u.Members {
			if !decode.Scalar(m) {
				return nil
			}
		}
		tv := &tupleValue{d: u, path: e.Path}
		return &flag{path: e.Path, value: tv, tuple: tv}
	default:
		return nil
	}
}

// Load implements the strata.Provider interface.
func (p *Provider) Load(ctx context.Context, s *schema.Schema, strict bool) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs, flags := p.flagSet(s)
	known, err := scan(fs, flags, p.args)
	if err != nil {
		return nil, err
	}

	err = fs.Parse(known)
	if err != nil {
		if ferr := failure(flags); ferr != nil {
			return nil, ferr
		}
		return nil, ParseError{Cause: err}
	}

	tree := make(merge.Tree)
	var setErr error
	fs.Visit(func(pf *pflag.Flag) {
		if setErr != nil {
			return
		}
		f := flags[pf.Name]
		setErr = tree.Set(f.path, f.value.raw())
	})
	if setErr != nil {
		return nil, setErr
	}
	return tree, nil
}

// scan splits args into the arguments pflag should parse and the ones
// which match no flag. Tuple flags are applied directly since pflag
// has no notion of a flag taking multiple values.
func scan(fs *pflag.FlagSet, flags map[string]*flag, args []string) ([]string, error) {
	var known, unknown []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			unknown = append(unknown, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
			unknown = append(unknown, arg)
			continue
		}

		name, _, hasValue := strings.Cut(arg[2:], "=")
		f, ok := flags[name]
		switch {
		case !ok:
			unknown = append(unknown, arg)
			if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				unknown = append(unknown, args[i+1])
				i++
			}
		case f.tuple != nil:
			n, err := setTuple(fs, name, f, args[i+1:])
			if err != nil {
				return nil, err
			}
			i += n
		case f.isBool || hasValue:
			known = append(known, arg)
		default:
			if i+1 < len(args) && isFlag(flags, args[i+1]) {
				return nil, ParseError{Cause: MissingValueError{Flag: arg}}
			}
			known = append(known, arg)
			if i+1 < len(args) {
				known = append(known, args[i+1])
				i++
			}
		}
	}
	if len(unknown) > 0 {
		return nil, loaderr.StrictLoadingError{Keys: unknown}
	}
	return known, nil
}

// isFlag reports whether arg names one of the known flags.
func isFlag(flags map[string]*flag, arg string) bool {
	if !strings.HasPrefix(arg, "--") {
		return false
	}
	name, _, _ := strings.Cut(arg[2:], "=")
	_, ok := flags[name]
	return ok
}

func setTuple(fs *pflag.FlagSet, name string, f *flag, rest []string) (int, error) {
	n := f.tuple.arity()
	if len(rest) < n {
		return 0, loaderr.InvalidValueError{
			Expected: f.tuple.d.Type,
			Value:    rest,
			Path:     f.path,
			Cause:    decode.ArityError{Expected: n, Actual: len(rest)},
		}
	}

	f.tuple.reset()
	for _, s := range rest[:n] {
		err := fs.Set(name, s)
		if err != nil {
			if ferr := f.value.failure(); ferr != nil {
				return 0, ferr
			}
			return 0, ParseError{Cause: err}
		}
	}
	return n, nil
}

func failure(flags map[string]*flag) error {
	for _, f := range flags {
		if err := f.value.failure(); err != nil {
			return err
		}
	}
	return nil
}
