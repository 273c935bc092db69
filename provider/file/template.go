// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package file

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/template"
)

// TemplateOption configures how a file is rendered before it is parsed.
type TemplateOption func(*TemplateRenderer)

// TemplateFunc registers f for use in the file template under name.
func TemplateFunc(name string, f any) TemplateOption {
	return func(tr *TemplateRenderer) {
		tr.funcs[name] = f
	}
}

// TemplateDelims sets the action delimiters. An empty delimiter
// stands for the corresponding default: {{ or }}.
func TemplateDelims(left, right string) TemplateOption {
	return func(tr *TemplateRenderer) {
		tr.leftDelim = left
		tr.rightDelim = right
	}
}

// TemplateEnviron sets the "KEY=value" pairs visible to the env template
// function. The process environment at construction is used by default.
func TemplateEnviron(environ []string) TemplateOption {
	return func(tr *TemplateRenderer) {
		tr.env = environMap(environ)
	}
}

// TemplateRenderer is an io.Reader which renders a text/template read
// from another io.Reader. The template may call env "NAME" to read
// an environment variable, which renders empty when it is unset.
type TemplateRenderer struct {
	r io.Reader

	leftDelim  string
	rightDelim string
	funcs      template.FuncMap
	env        map[string]string

	renderOnce sync.Once
	renderErr  error
	buf        bytes.Buffer
}

// NewTemplateRenderer configures a TemplateRenderer.
func NewTemplateRenderer(r io.Reader, opts ...TemplateOption) *TemplateRenderer {
	tr := &TemplateRenderer{
		r:     r,
		funcs: make(template.FuncMap),
		env:   environMap(os.Environ()),
	}
	for _, opt := range opts {
		opt(tr)
	}
	return tr
}

// TemplateParseError occurs when the file template fails to be parsed.
type TemplateParseError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e TemplateParseError) Error() string {
	return fmt.Sprintf("failed to parse config template: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TemplateParseError) Unwrap() error {
	return e.Cause
}

// TemplateExecError occurs when a template fails to execute. Most
// likely cause is a template function returning an error or panicking.
type TemplateExecError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e TemplateExecError) Error() string {
	return fmt.Sprintf("failed to exec config template: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TemplateExecError) Unwrap() error {
	return e.Cause
}

// Read implements the io.Reader interface.
func (tr *TemplateRenderer) Read(b []byte) (int, error) {
	tr.renderOnce.Do(func() {
		tr.renderErr = tr.render()
	})
	if tr.renderErr != nil {
		return 0, tr.renderErr
	}
	return tr.buf.Read(b)
}

func (tr *TemplateRenderer) render() error {
	var sb strings.Builder
	_, err := io.Copy(&sb, tr.r)
	if err != nil {
		return err
	}

	funcs := template.FuncMap{
		"env": func(name string) string {
			return tr.env[name]
		},
	}
	for name, f := range tr.funcs {
		funcs[name] = f
	}

	tmpl, err := template.New("config").
		Delims(tr.leftDelim, tr.rightDelim).
		Funcs(funcs).
		Parse(sb.String())
	if err != nil {
		return TemplateParseError{Cause: err}
	}

	err = tmpl.Execute(&tr.buf, struct{}{})
	if err != nil {
		return TemplateExecError{Cause: err}
	}
	return nil
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}
