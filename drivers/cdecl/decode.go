// Package cdecl loads the structured declaration lists an external C parser
// emits, one JSON document per library version. It applies C defaulting
// rules (implicit enumerator values) so the engine only ever sees explicit
// declarations.
package cdecl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/abiguard-labs/abiguard/core/abi"
	"github.com/abiguard-labs/abiguard/core/driver"
)

// Source reads declaration lists from JSON files on disk.
type Source struct{}

var _ driver.DeclarationSource = (*Source)(nil)

// NewSource creates a JSON-file declaration source.
func NewSource() *Source {
	return &Source{}
}

// LoadVersion reads and decodes one version's declaration list.
func (s *Source) LoadVersion(ctx context.Context, path string) (abi.RawDeclarations, error) {
	if err := ctx.Err(); err != nil {
		return abi.RawDeclarations{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return abi.RawDeclarations{}, fmt.Errorf("reading declarations %s: %w", path, err)
	}

	decls, err := Decode(data)
	if err != nil {
		return abi.RawDeclarations{}, fmt.Errorf("parsing declarations %s: %w", path, err)
	}
	return decls, nil
}

type wireDeclarations struct {
	Functions []wireFunction `json:"functions"`
	Structs   []wireStruct   `json:"structs"`
	Enums     []wireEnum     `json:"enums"`
}

type wireFunction struct {
	Name   string   `json:"name"`
	Return string   `json:"return"`
	Params []string `json:"params"`
}

type wireStruct struct {
	Name          string      `json:"name"`
	Fields        []wireField `json:"fields"`
	AlignOverride uint32      `json:"align_override,omitempty"`
}

type wireField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type wireEnum struct {
	Name        string           `json:"name"`
	Enumerators []wireEnumerator `json:"enumerators"`
}

// wireEnumerator carries an optional value; a nil value means the declaration
// left it implicit.
type wireEnumerator struct {
	Name  string `json:"name"`
	Value *int64 `json:"value,omitempty"`
}

// Decode converts a JSON declaration document into the engine's raw form.
func Decode(data []byte) (abi.RawDeclarations, error) {
	var wire wireDeclarations
	if err := json.Unmarshal(data, &wire); err != nil {
		return abi.RawDeclarations{}, err
	}

	var out abi.RawDeclarations

	for _, fn := range wire.Functions {
		if fn.Name == "" {
			return abi.RawDeclarations{}, fmt.Errorf("function with empty name")
		}
		ret, err := ParseTypeRef(fn.Return)
		if err != nil {
			return abi.RawDeclarations{}, fmt.Errorf("function %s return type: %w", fn.Name, err)
		}
		params, err := parseParams(fn.Name, fn.Params)
		if err != nil {
			return abi.RawDeclarations{}, err
		}
		out.Functions = append(out.Functions, abi.RawFunction{Name: fn.Name, Return: ret, Params: params})
	}

	for _, st := range wire.Structs {
		if st.Name == "" {
			return abi.RawDeclarations{}, fmt.Errorf("struct with empty name")
		}
		fields := make([]abi.Field, 0, len(st.Fields))
		for _, f := range st.Fields {
			if f.Name == "" {
				return abi.RawDeclarations{}, fmt.Errorf("struct %s: field with empty name", st.Name)
			}
			typ, err := ParseTypeRef(f.Type)
			if err != nil {
				return abi.RawDeclarations{}, fmt.Errorf("struct %s field %s: %w", st.Name, f.Name, err)
			}
			fields = append(fields, abi.Field{Name: f.Name, Type: typ})
		}
		out.Structs = append(out.Structs, abi.RawStruct{Name: st.Name, Fields: fields, AlignOverride: st.AlignOverride})
	}

	for _, en := range wire.Enums {
		if en.Name == "" {
			return abi.RawDeclarations{}, fmt.Errorf("enum with empty name")
		}
		// Implicit values: first enumerator defaults to 0, each later
		// unspecified one is previous + 1.
		next := int64(0)
		enumerators := make([]abi.RawEnumerator, 0, len(en.Enumerators))
		for _, e := range en.Enumerators {
			if e.Name == "" {
				return abi.RawDeclarations{}, fmt.Errorf("enum %s: enumerator with empty name", en.Name)
			}
			if e.Value != nil {
				next = *e.Value
			}
			enumerators = append(enumerators, abi.RawEnumerator{Name: e.Name, Value: next})
			next++
		}
		out.Enums = append(out.Enums, abi.RawEnum{Name: en.Name, Enumerators: enumerators})
	}

	return out, nil
}

// parseParams handles the C spelling "f(void)" for an empty parameter list.
func parseParams(function string, params []string) ([]abi.TypeRef, error) {
	if len(params) == 1 && strings.TrimSpace(params[0]) == "void" {
		return nil, nil
	}
	out := make([]abi.TypeRef, 0, len(params))
	for i, p := range params {
		ref, err := ParseTypeRef(p)
		if err != nil {
			return nil, fmt.Errorf("function %s parameter %d: %w", function, i, err)
		}
		out = append(out, ref)
	}
	return out, nil
}

// ParseTypeRef parses a C-like type spelling into a TypeRef. Supported forms:
// primitive names (possibly multi-word, e.g. "unsigned long long"),
// "struct Name", "enum Name", trailing "*" for pointers, and leading "const"
// qualifiers, which carry no layout meaning and are dropped.
func ParseTypeRef(s string) (abi.TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return abi.Primitive("void"), nil
	}

	if strings.HasSuffix(s, "*") {
		inner, err := ParseTypeRef(strings.TrimSuffix(s, "*"))
		if err != nil {
			return abi.TypeRef{}, err
		}
		return abi.PointerTo(inner), nil
	}

	for strings.HasPrefix(s, "const ") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "const "))
	}

	if rest, ok := strings.CutPrefix(s, "struct "); ok {
		name := strings.TrimSpace(rest)
		if name == "" {
			return abi.TypeRef{}, fmt.Errorf("struct type with empty name")
		}
		return abi.StructRef(name), nil
	}
	if rest, ok := strings.CutPrefix(s, "enum "); ok {
		name := strings.TrimSpace(rest)
		if name == "" {
			return abi.TypeRef{}, fmt.Errorf("enum type with empty name")
		}
		return abi.EnumRef(name), nil
	}

	return abi.Primitive(s), nil
}
