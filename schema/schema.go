// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/z5labs/strata/internal/hook"
	"github.com/z5labs/strata/key"

	"gopkg.in/yaml.v3"
)

// TagName is the struct tag used to name, or exclude, configuration fields.
const TagName = "strata"

// DefaultTagName is the struct tag holding a fields default value.
const DefaultTagName = "default"

// Field describes a single configurable struct field.
type Field struct {
	// Name is the configuration key of the field.
	Name string

	// Index is the reflect index sequence of the field within its struct.
	Index []int

	Type *Descriptor

	// Default is only meaningful when HasDefault is set.
	Default    any
	HasDefault bool

	DefaultFactory func() any
}

// Required reports whether the field fails to load when no source sets it.
func (f *Field) Required() bool {
	return !f.HasDefault && f.DefaultFactory == nil && f.Type.Kind != Optional
}

// Schema is the ordered list of configurable fields of a struct type.
type Schema struct {
	Type   reflect.Type
	Fields []*Field
}

// Entry pairs a field with its full path from the schema root.
type Entry struct {
	Path  key.Path
	Field *Field
}

// Paths returns every declared path, including paths to nested structs.
// Nested paths are listed before the path of the struct field holding them.
func (s *Schema) Paths() []Entry {
	return s.paths(key.Path{})
}

func (s *Schema) paths(prefix key.Path) []Entry {
	var entries []Entry
	for _, f := range s.Fields {
		p := prefix.Append(key.Name(f.Name))
		if nested := f.Type.Nested(); nested != nil {
			entries = append(entries, nested.paths(p)...)
		}
		entries = append(entries, Entry{Path: p, Field: f})
	}
	return entries
}

// Field returns the field with the given configuration name.
func (s *Schema) Field(name string) (*Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Lookup resolves a, possibly nested, path to its field.
func (s *Schema) Lookup(p key.Path) (*Field, bool) {
	if len(p) == 0 {
		return nil, false
	}
	cur := s
	for i, seg := range p {
		f, ok := cur.Field(string(seg))
		if !ok {
			return nil, false
		}
		if i == len(p)-1 {
			return f, true
		}
		cur = f.Type.Nested()
		if cur == nil {
			return nil, false
		}
	}
	return nil, false
}

// NotStructuredError occurs when a schema is requested for a type which is not a struct.
type NotStructuredError struct {
	Type reflect.Type
}

// Error implements the [builtin.error] interface.
func (e NotStructuredError) Error() string {
	return fmt.Sprintf("configuration type must be a struct: %v", e.Type)
}

// MalformedTypeError occurs when a struct declaration cannot be turned into a schema.
type MalformedTypeError struct {
	Type   reflect.Type
	Reason string
}

// Error implements the [builtin.error] interface.
func (e MalformedTypeError) Error() string {
	return fmt.Sprintf("malformed configuration type %s: %s", e.Type, e.Reason)
}

// Extract returns the schema of the struct type t.
func Extract(t reflect.Type) (*Schema, error) {
	d, err := Of(t)
	if err != nil {
		return nil, err
	}
	if d.Kind != Structured {
		return nil, NotStructuredError{Type: t}
	}
	return d.Schema, nil
}

// For returns the schema of T.
func For[T any]() (*Schema, error) {
	return Extract(reflect.TypeFor[T]())
}

func (c *classifier) extract(t reflect.Type) (*Schema, error) {
	s := &Schema{Type: t}
	err := c.collect(s, t, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.Name] {
			return nil, MalformedTypeError{Type: t, Reason: fmt.Sprintf("duplicate field name %q", f.Name)}
		}
		seen[f.Name] = true
	}

	err = applyDefaultFactories(s, t)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *classifier) collect(s *Schema, t reflect.Type, index []int) error {
	for i := range t.NumField() {
		sf := t.Field(i)
		tag := sf.Tag.Get(TagName)
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		idx := append(append([]int(nil), index...), i)
		if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct && flattens(sf.Type) {
			err := c.collect(s, sf.Type, idx)
			if err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		if name == "" {
			name = SnakeCase(sf.Name)
		}
		d, err := c.classify(sf.Type)
		if err != nil {
			return err
		}

		f := &Field{
			Name:  name,
			Index: idx,
			Type:  d,
		}
		if def, ok := sf.Tag.Lookup(DefaultTagName); ok {
			v, err := parseDefault(sf.Type, def)
			if err != nil {
				return MalformedTypeError{
					Type:   t,
					Reason: fmt.Sprintf("invalid default for field %s: %s", sf.Name, err),
				}
			}
			f.Default = v
			f.HasDefault = true
		}
		s.Fields = append(s.Fields, f)
	}
	return nil
}

func flattens(t reflect.Type) bool {
	return !implements(t, tupleType) && !implements(t, unionType) && !hook.CanParse(t)
}

func parseDefault(t reflect.Type, s string) (any, error) {
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	var raw any = s
	if base.Kind() != reflect.String && !hook.CanParse(base) {
		err := yaml.Unmarshal([]byte(s), &raw)
		if err != nil {
			return nil, err
		}
	}

	v, err := hook.WeakDecode(t, raw)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func applyDefaultFactories(s *Schema, t reflect.Type) error {
	if !implements(t, reflect.TypeOf((*DefaultFactories)(nil)).Elem()) {
		return nil
	}

	df, ok := reflect.Zero(t).Interface().(DefaultFactories)
	if !ok {
		df = reflect.New(t).Interface().(DefaultFactories)
	}
	for name, factory := range df.DefaultFactories() {
		f, ok := s.Field(name)
		if !ok {
			return MalformedTypeError{Type: t, Reason: fmt.Sprintf("default factory for unknown field %q", name)}
		}
		if f.HasDefault {
			return MalformedTypeError{Type: t, Reason: fmt.Sprintf("field %q has both a default and a default factory", name)}
		}
		f.DefaultFactory = factory
	}
	return nil
}

// SnakeCase converts a Go identifier into its default configuration name
// e.g. "HTTPPort" becomes "http_port".
func SnakeCase(s string) string {
	rs := []rune(s)
	var sb strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := rs[i-1]
				nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					sb.WriteByte('_')
				}
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
