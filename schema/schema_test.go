// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"errors"
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/z5labs/strata/key"

	"github.com/stretchr/testify/require"
)

type level string

func (level) Enumerate() []any {
	return []any{"debug", "info"}
}

type compact struct {
	Host string
	Port int
}

func (c *compact) ParseString(s string) error {
	host, _, ok := strings.Cut(s, ":")
	if !ok {
		return errors.New("missing port")
	}
	c.Host = host
	return nil
}

type upper string

func (u *upper) ParseString(s string) error {
	*u = upper(strings.ToUpper(s))
	return nil
}

type point struct {
	Tuple
	X int
	Y string
}

type simple struct {
	OptionA string
	OptionB int
}

type nested struct {
	Nested   simple
	OptionC  int
	Optional *simple
}

type cyclic struct {
	Next *cyclic
}

type indirectCycle struct {
	Children []indirectCycle
}

func TestOf(t *testing.T) {
	testCases := []struct {
		name     string
		typ      reflect.Type
		expected Kind
	}{
		{name: "bool", typ: reflect.TypeFor[bool](), expected: Primitive},
		{name: "int", typ: reflect.TypeFor[int](), expected: Primitive},
		{name: "float", typ: reflect.TypeFor[float64](), expected: Primitive},
		{name: "string", typ: reflect.TypeFor[string](), expected: Primitive},
		{name: "duration", typ: reflect.TypeFor[time.Duration](), expected: Primitive},
		{name: "any", typ: reflect.TypeFor[any](), expected: Any},
		{name: "pointer", typ: reflect.TypeFor[*int](), expected: Optional},
		{name: "union", typ: reflect.TypeFor[OneOf2[int, string]](), expected: Union},
		{name: "struct tuple", typ: reflect.TypeFor[point](), expected: FixedTuple},
		{name: "array tuple", typ: reflect.TypeFor[[3]int](), expected: FixedTuple},
		{name: "variadic tuple", typ: reflect.TypeFor[Variadic[int]](), expected: VariadicTuple},
		{name: "slice", typ: reflect.TypeFor[[]string](), expected: Sequence},
		{name: "map", typ: reflect.TypeFor[map[string]int](), expected: Mapping},
		{name: "struct", typ: reflect.TypeFor[simple](), expected: Structured},
		{name: "parsable string", typ: reflect.TypeFor[upper](), expected: StringParsable},
		{name: "text unmarshaler slice", typ: reflect.TypeFor[net.IP](), expected: StringParsable},
		{name: "text unmarshaler struct without fields", typ: reflect.TypeFor[time.Time](), expected: StringParsable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Of(tc.typ)
			require.NoError(t, err)
			require.Equal(t, tc.expected, d.Kind)
			require.Equal(t, tc.typ, d.Type)
		})
	}

	t.Run("is idempotent and cached by type identity", func(t *testing.T) {
		a, err := Of(reflect.TypeFor[nested]())
		require.NoError(t, err)
		b, err := Of(reflect.TypeFor[nested]())
		require.NoError(t, err)
		require.Same(t, a, b)
	})

	t.Run("structured types can also be parsable", func(t *testing.T) {
		d, err := TypeOf[compact]()
		require.NoError(t, err)
		require.Equal(t, Structured, d.Kind)
		require.True(t, d.Parsable)
	})

	t.Run("records union members in declaration order", func(t *testing.T) {
		d, err := TypeOf[OneOf3[int, string, bool]]()
		require.NoError(t, err)
		require.Len(t, d.Members, 3)
		require.Equal(t, reflect.TypeFor[int](), d.Members[0].Type)
		require.Equal(t, reflect.TypeFor[string](), d.Members[1].Type)
		require.Equal(t, reflect.TypeFor[bool](), d.Members[2].Type)
	})

	t.Run("records tuple members and field indices", func(t *testing.T) {
		d, err := TypeOf[point]()
		require.NoError(t, err)
		require.Len(t, d.Members, 2)
		require.Equal(t, []int{1, 2}, d.TupleFields)
		require.Equal(t, reflect.TypeFor[string](), d.Members[1].Type)
	})

	t.Run("records enum values converted to the enum type", func(t *testing.T) {
		d, err := TypeOf[level]()
		require.NoError(t, err)
		require.Equal(t, Primitive, d.Kind)
		require.Equal(t, []any{level("debug"), level("info")}, d.Allowed)
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the type is a channel", func(t *testing.T) {
			_, err := TypeOf[chan int]()

			var uerr UnsupportedTypeError
			require.ErrorAs(t, err, &uerr)
			require.NotEmpty(t, uerr.Error())
		})

		t.Run("if the type is a non-empty interface", func(t *testing.T) {
			_, err := TypeOf[error]()

			var uerr UnsupportedTypeError
			require.ErrorAs(t, err, &uerr)
		})

		t.Run("if the type refers to itself", func(t *testing.T) {
			_, err := TypeOf[cyclic]()

			var cerr CyclicTypeError
			require.ErrorAs(t, err, &cerr)
			require.NotEmpty(t, cerr.Error())
		})

		t.Run("if the type refers to itself through a slice", func(t *testing.T) {
			_, err := TypeOf[indirectCycle]()

			var cerr CyclicTypeError
			require.ErrorAs(t, err, &cerr)
		})
	})
}

func TestFor(t *testing.T) {
	t.Run("derives snake case field names in declaration order", func(t *testing.T) {
		s, err := For[simple]()
		require.NoError(t, err)
		require.Len(t, s.Fields, 2)
		require.Equal(t, "option_a", s.Fields[0].Name)
		require.Equal(t, "option_b", s.Fields[1].Name)
		require.True(t, s.Fields[0].Required())
	})

	t.Run("honors name tags and excluded fields", func(t *testing.T) {
		type tagged struct {
			Port     int    `strata:"listen_port"`
			Computed string `strata:"-"`
			internal int
		}

		s, err := For[tagged]()
		require.NoError(t, err)
		require.Len(t, s.Fields, 1)
		require.Equal(t, "listen_port", s.Fields[0].Name)
	})

	t.Run("flattens anonymous struct fields", func(t *testing.T) {
		type base struct {
			Name string
		}
		type derived struct {
			base
			Base2 simple
			Age   int
		}
		type embedding struct {
			simple
			Age int
		}

		s, err := For[embedding]()
		require.NoError(t, err)
		require.Len(t, s.Fields, 3)
		require.Equal(t, "option_a", s.Fields[0].Name)
		require.Equal(t, []int{0, 0}, s.Fields[0].Index)
		require.Equal(t, "age", s.Fields[2].Name)

		s, err = For[derived]()
		require.NoError(t, err)
		require.Len(t, s.Fields, 3)
		require.Equal(t, "name", s.Fields[0].Name)
		require.Equal(t, "base2", s.Fields[1].Name)
	})

	t.Run("parses default tags into the field type", func(t *testing.T) {
		type defaults struct {
			Port    int           `default:"8080"`
			Name    string        `default:"1.0"`
			Timeout time.Duration `default:"10s"`
			Tags    []string      `default:"[a, b]"`
			Ratio   *float64      `default:"0.5"`
		}

		s, err := For[defaults]()
		require.NoError(t, err)
		require.Equal(t, 8080, s.Fields[0].Default)
		require.Equal(t, "1.0", s.Fields[1].Default)
		require.Equal(t, 10*time.Second, s.Fields[2].Default)
		require.Equal(t, []string{"a", "b"}, s.Fields[3].Default)
		require.Equal(t, 0.5, *(s.Fields[4].Default.(*float64)))
		for _, f := range s.Fields {
			require.True(t, f.HasDefault)
			require.False(t, f.Required())
		}
	})

	t.Run("optional fields are never required", func(t *testing.T) {
		s, err := For[nested]()
		require.NoError(t, err)

		f, ok := s.Field("optional")
		require.True(t, ok)
		require.False(t, f.Required())
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the type is not a struct", func(t *testing.T) {
			_, err := For[int]()

			var serr NotStructuredError
			require.ErrorAs(t, err, &serr)
		})

		t.Run("if a default tag cannot be parsed", func(t *testing.T) {
			type badDefault struct {
				Port int `default:"not-a-number"`
			}

			_, err := For[badDefault]()

			var merr MalformedTypeError
			require.ErrorAs(t, err, &merr)
			require.NotEmpty(t, merr.Error())
		})

		t.Run("if two fields share a name", func(t *testing.T) {
			type dup struct {
				A int `strata:"x"`
				B int `strata:"x"`
			}

			_, err := For[dup]()

			var merr MalformedTypeError
			require.ErrorAs(t, err, &merr)
		})
	})
}

type withFactories struct {
	ID    string
	Hosts []string
}

func (withFactories) DefaultFactories() map[string]func() any {
	return map[string]func() any{
		"hosts": func() any { return []string{"localhost"} },
	}
}

type conflictingFactories struct {
	Hosts []string `default:"[a]"`
}

func (conflictingFactories) DefaultFactories() map[string]func() any {
	return map[string]func() any{
		"hosts": func() any { return []string{"localhost"} },
	}
}

func TestDefaultFactories(t *testing.T) {
	t.Run("attaches factories by field name", func(t *testing.T) {
		s, err := For[withFactories]()
		require.NoError(t, err)

		f, ok := s.Field("hosts")
		require.True(t, ok)
		require.NotNil(t, f.DefaultFactory)
		require.Equal(t, []string{"localhost"}, f.DefaultFactory())
		require.False(t, f.Required())

		id, _ := s.Field("id")
		require.True(t, id.Required())
	})

	t.Run("rejects a field with both a default and a factory", func(t *testing.T) {
		_, err := For[conflictingFactories]()

		var merr MalformedTypeError
		require.ErrorAs(t, err, &merr)
	})
}

func TestSchema_Paths(t *testing.T) {
	s, err := For[nested]()
	require.NoError(t, err)

	var paths []string
	for _, e := range s.Paths() {
		paths = append(paths, e.Path.Key())
	}
	require.Equal(t, []string{
		"nested.option_a",
		"nested.option_b",
		"nested",
		"option_c",
		"optional.option_a",
		"optional.option_b",
		"optional",
	}, paths)
}

func TestSchema_Lookup(t *testing.T) {
	s, err := For[nested]()
	require.NoError(t, err)

	testCases := []struct {
		name   string
		path   key.Path
		found  bool
		fieldN string
	}{
		{name: "top level", path: key.Of("option_c"), found: true, fieldN: "option_c"},
		{name: "nested leaf", path: key.Of("nested", "option_b"), found: true, fieldN: "option_b"},
		{name: "through optional", path: key.Of("optional", "option_a"), found: true, fieldN: "option_a"},
		{name: "unknown", path: key.Of("nested", "unknown"), found: false},
		{name: "below a leaf", path: key.Of("option_c", "x"), found: false},
		{name: "empty", path: key.Path{}, found: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, ok := s.Lookup(tc.path)
			require.Equal(t, tc.found, ok)
			if tc.found {
				require.Equal(t, tc.fieldN, f.Name)
			}
		})
	}
}

func TestSnakeCase(t *testing.T) {
	testCases := map[string]string{
		"OptionA":   "option_a",
		"HTTPPort":  "http_port",
		"ID":        "id",
		"UserID":    "user_id",
		"simple":    "simple",
		"Version2X": "version2_x",
	}

	for in, expected := range testCases {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, expected, SnakeCase(in))
		})
	}
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "Structured", Structured.String())
	require.Equal(t, "Invalid", Kind(0).String())
}
