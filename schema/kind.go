// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

// Kind tags a [Descriptor] with how raw values are decoded into its type.
type Kind int

const (
	_ Kind = iota // zero value is invalid

	Primitive
	Optional
	Union
	Sequence
	FixedTuple
	VariadicTuple
	Mapping
	Structured
	StringParsable
	Any
)

// String implements the [fmt.Stringer] interface.
func (k Kind) String() string {
	switch k {
	case Primitive:
		return "Primitive"
	case Optional:
		return "Optional"
	case Union:
		return "Union"
	case Sequence:
		return "Sequence"
	case FixedTuple:
		return "FixedTuple"
	case VariadicTuple:
		return "VariadicTuple"
	case Mapping:
		return "Mapping"
	case Structured:
		return "Structured"
	case StringParsable:
		return "StringParsable"
	case Any:
		return "Any"
	default:
		return "Invalid"
	}
}
