// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package args

import (
	"strings"

	"github.com/z5labs/strata/decode"
	"github.com/z5labs/strata/key"
	"github.com/z5labs/strata/schema"
)

// value is a pflag.Value which converts every argument with
// [decode.ParseScalar] and keeps the first conversion error so
// it can be returned with its original type.
type value interface {
	Set(string) error
	String() string
	Type() string

	raw() any
	failure() error
}

type scalarValue struct {
	d    *schema.Descriptor
	path key.Path
	s    string
	v    any
	err  error
}

func (sv *scalarValue) Set(s string) error {
	v, err := decode.ParseScalar(s, sv.d, sv.path)
	if err != nil {
		sv.err = err
		return err
	}
	sv.s = s
	sv.v = v
	return nil
}

func (sv *scalarValue) String() string { return sv.s }

func (sv *scalarValue) Type() string { return sv.d.Unwrap().Type.String() }

func (sv *scalarValue) raw() any { return sv.v }

func (sv *scalarValue) failure() error { return sv.err }

// listValue collects one element per occurrence of its flag.
type listValue struct {
	d    *schema.Descriptor
	path key.Path
	ss   []string
	vs   []any
	err  error
}

func (lv *listValue) Set(s string) error {
	v, err := decode.ParseScalar(s, lv.d.Elem, lv.path)
	if err != nil {
		lv.err = err
		return err
	}
	lv.ss = append(lv.ss, s)
	lv.vs = append(lv.vs, v)
	return nil
}

func (lv *listValue) String() string { return "[" + strings.Join(lv.ss, ",") + "]" }

func (lv *listValue) Type() string { return lv.d.Elem.Unwrap().Type.String() + "s" }

func (lv *listValue) raw() any { return lv.vs }

func (lv *listValue) failure() error { return lv.err }

// tupleValue holds the elements of the latest occurrence of its flag.
type tupleValue struct {
	d    *schema.Descriptor
	path key.Path
	ss   []string
	vs   []any
	err  error
}

func (tv *tupleValue) reset() {
	tv.ss = nil
	tv.vs = nil
}

func (tv *tupleValue) arity() int { return len(tv.d.Members) }

func (tv *tupleValue) Set(s string) error {
	i := len(tv.vs)
	if i >= tv.arity() {
		tv.reset()
		i = 0
	}
	v, err := decode.ParseScalar(s, tv.d.Members[i], tv.path)
	if err != nil {
		tv.err = err
		return err
	}
	tv.ss = append(tv.ss, s)
	tv.vs = append(tv.vs, v)
	return nil
}

func (tv *tupleValue) String() string { return strings.Join(tv.ss, " ") }

func (tv *tupleValue) Type() string { return tv.d.Type.String() }

func (tv *tupleValue) raw() any { return tv.vs }

func (tv *tupleValue) failure() error { return tv.err }
