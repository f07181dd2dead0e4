// Package abi computes binary layout facts for exported symbols and decides,
// symbol by symbol, whether a newer library version preserves binary
// compatibility with an older one.
package abi

import "strings"

// TypeKind discriminates the variants of a TypeRef.
type TypeKind string

const (
	TypePrimitive TypeKind = "primitive"
	TypePointer   TypeKind = "pointer"
	TypeStruct    TypeKind = "struct"
	TypeEnum      TypeKind = "enum"
)

// TypeRef is a reference to a type as the external parser emitted it.
// It is resolved against the symbol table of its own version and is never
// shared across versions.
type TypeRef struct {
	Kind TypeKind `json:"kind"`
	Name string   `json:"name,omitempty"` // primitive, struct, or enum name
	Elem *TypeRef `json:"elem,omitempty"` // pointee, set only for pointers
}

// Primitive returns a reference to a named primitive type.
func Primitive(name string) TypeRef {
	return TypeRef{Kind: TypePrimitive, Name: name}
}

// PointerTo returns a pointer reference to the given type.
func PointerTo(elem TypeRef) TypeRef {
	e := elem
	return TypeRef{Kind: TypePointer, Elem: &e}
}

// StructRef returns a reference to a named struct.
func StructRef(name string) TypeRef {
	return TypeRef{Kind: TypeStruct, Name: name}
}

// EnumRef returns a reference to a named enum.
func EnumRef(name string) TypeRef {
	return TypeRef{Kind: TypeEnum, Name: name}
}

// String renders the reference in C-like spelling for diagnostics.
func (t TypeRef) String() string {
	switch t.Kind {
	case TypePointer:
		if t.Elem == nil {
			return "*"
		}
		return t.Elem.String() + "*"
	case TypeStruct:
		return "struct " + t.Name
	case TypeEnum:
		return "enum " + t.Name
	default:
		return t.Name
	}
}

// Equal reports structural equality of two type references.
func (t TypeRef) Equal(other TypeRef) bool {
	if t.Kind != other.Kind || t.Name != other.Name {
		return false
	}
	if t.Kind == TypePointer {
		switch {
		case t.Elem == nil && other.Elem == nil:
			return true
		case t.Elem == nil || other.Elem == nil:
			return false
		default:
			return t.Elem.Equal(*other.Elem)
		}
	}
	return true
}

// Extent is the size and alignment of a type in bytes.
type Extent struct {
	Size  uint32 `json:"size"`
	Align uint32 `json:"align"`
}

// Field is one named struct member in declaration order.
type Field struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

// FunctionSignature describes one exported function. Parameter names carry no
// compatibility meaning, so only the ordered types are kept.
type FunctionSignature struct {
	Name   string    `json:"name"`
	Return TypeRef   `json:"return"`
	Params []TypeRef `json:"params"`
}

// String renders the signature for diagnostics, e.g. "int add(int, int)".
func (f FunctionSignature) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	return f.Return.String() + " " + f.Name + "(" + strings.Join(params, ", ") + ")"
}

// Resolved holds the computed layout facts for a struct. It is derived from
// the field list and the target profile, never authored directly.
type Resolved struct {
	Size         uint32            `json:"size"`
	Align        uint32            `json:"align"`
	FieldOffsets map[string]uint32 `json:"field_offsets"`
}

// StructLayout describes one exported struct with its computed layout.
type StructLayout struct {
	Name     string   `json:"name"`
	Fields   []Field  `json:"fields"`
	Resolved Resolved `json:"resolved"`
}

// EnumWidth is the byte width of every enum under the supported profiles
// (enums lower to int).
const EnumWidth = 4

// EnumDefinition describes one exported enum. Enumerator values are kept
// exactly as declared; they need not be contiguous or ordered.
type EnumDefinition struct {
	Name        string           `json:"name"`
	Width       uint32           `json:"width"`
	Enumerators map[string]int64 `json:"enumerators"`
}

// RawEnumerator is one enumerator as emitted by the external parser, with its
// value already made explicit (the implicit previous+1 rule is the parser
// driver's job).
type RawEnumerator struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// RawFunction is the parser-boundary form of a function declaration.
type RawFunction struct {
	Name   string    `json:"name"`
	Return TypeRef   `json:"return"`
	Params []TypeRef `json:"params"`
}

// RawStruct is the parser-boundary form of a struct declaration.
// AlignOverride, when nonzero, forces the struct's alignment instead of the
// natural max-field alignment. Parsers only set it for explicit alignment
// annotations.
type RawStruct struct {
	Name          string  `json:"name"`
	Fields        []Field `json:"fields"`
	AlignOverride uint32  `json:"align_override,omitempty"`
}

// RawEnum is the parser-boundary form of an enum declaration.
type RawEnum struct {
	Name        string          `json:"name"`
	Enumerators []RawEnumerator `json:"enumerators"`
}

// RawDeclarations is the full structured declaration list the external parser
// emits for one library version, pre-filtered to externally visible symbols.
type RawDeclarations struct {
	Functions []RawFunction `json:"functions"`
	Structs   []RawStruct   `json:"structs"`
	Enums     []RawEnum     `json:"enums"`
}
