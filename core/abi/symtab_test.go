package abi

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abiguard-labs/abiguard/core/finding"
)

func TestBuildResolvesNestedStructsInDependencyOrder(t *testing.T) {
	// Outer is declared before Inner; resolution order must not depend on
	// declaration order.
	raw := RawDeclarations{
		Structs: []RawStruct{
			{Name: "Outer", Fields: []Field{
				{Name: "inner", Type: StructRef("Inner")},
				{Name: "c", Type: Primitive("char")},
			}},
			{Name: "Inner", Fields: []Field{
				{Name: "x", Type: Primitive("int")},
				{Name: "y", Type: Primitive("int")},
			}},
		},
	}

	tab, err := Build(raw, LP64())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	inner, ok := tab.Struct("Inner")
	if !ok {
		t.Fatal("Inner not found")
	}
	if inner.Resolved.Size != 8 || inner.Resolved.Align != 4 {
		t.Errorf("Inner layout: got %d/%d, want 8/4", inner.Resolved.Size, inner.Resolved.Align)
	}

	outer, ok := tab.Struct("Outer")
	if !ok {
		t.Fatal("Outer not found")
	}
	want := Resolved{
		Size:         12,
		Align:        4,
		FieldOffsets: map[string]uint32{"inner": 0, "c": 8},
	}
	if diff := cmp.Diff(want, outer.Resolved); diff != "" {
		t.Errorf("Outer layout mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSelfReferenceByPointer(t *testing.T) {
	raw := RawDeclarations{
		Structs: []RawStruct{
			{Name: "Node", Fields: []Field{
				{Name: "next", Type: PointerTo(StructRef("Node"))},
				{Name: "value", Type: Primitive("int")},
			}},
		},
	}

	tab, err := Build(raw, LP64())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	node, _ := tab.Struct("Node")
	if node.Resolved.Size != 16 || node.Resolved.Align != 8 {
		t.Errorf("Node layout: got %d/%d, want 16/8", node.Resolved.Size, node.Resolved.Align)
	}
	if off := node.Resolved.FieldOffsets["value"]; off != 8 {
		t.Errorf("value offset: got %d, want 8", off)
	}
}

func TestBuildDetectsCycles(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		raw := RawDeclarations{
			Structs: []RawStruct{
				{Name: "A", Fields: []Field{{Name: "self", Type: StructRef("A")}}},
			},
		}
		_, err := Build(raw, LP64())
		var cyclic *CyclicStructDependencyError
		if !errors.As(err, &cyclic) {
			t.Fatalf("error: got %v, want *CyclicStructDependencyError", err)
		}
	})

	t.Run("transitive", func(t *testing.T) {
		raw := RawDeclarations{
			Structs: []RawStruct{
				{Name: "A", Fields: []Field{{Name: "b", Type: StructRef("B")}}},
				{Name: "B", Fields: []Field{{Name: "a", Type: StructRef("A")}}},
			},
		}
		_, err := Build(raw, LP64())
		var cyclic *CyclicStructDependencyError
		if !errors.As(err, &cyclic) {
			t.Fatalf("error: got %v, want *CyclicStructDependencyError", err)
		}
		if len(cyclic.Cycle) < 3 {
			t.Errorf("cycle too short: %v", cyclic.Cycle)
		}
	})
}

func TestBuildDuplicateSymbols(t *testing.T) {
	tests := []struct {
		name string
		raw  RawDeclarations
		kind finding.SymbolKind
	}{
		{
			name: "function",
			raw: RawDeclarations{Functions: []RawFunction{
				{Name: "add", Return: Primitive("int")},
				{Name: "add", Return: Primitive("long")},
			}},
			kind: finding.KindFunction,
		},
		{
			name: "struct",
			raw: RawDeclarations{Structs: []RawStruct{
				{Name: "Point"},
				{Name: "Point"},
			}},
			kind: finding.KindStruct,
		},
		{
			name: "enum",
			raw: RawDeclarations{Enums: []RawEnum{
				{Name: "Color"},
				{Name: "Color"},
			}},
			kind: finding.KindEnum,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.raw, LP64())
			var dup *DuplicateSymbolError
			if !errors.As(err, &dup) {
				t.Fatalf("error: got %v, want *DuplicateSymbolError", err)
			}
			if dup.Kind != tc.kind {
				t.Errorf("kind: got %q, want %q", dup.Kind, tc.kind)
			}
		})
	}
}

func TestBuildDuplicateEnumerator(t *testing.T) {
	raw := RawDeclarations{
		Enums: []RawEnum{
			{Name: "Color", Enumerators: []RawEnumerator{
				{Name: "RED", Value: 0},
				{Name: "RED", Value: 7},
			}},
		},
	}

	_, err := Build(raw, LP64())
	var dup *DuplicateEnumeratorError
	if !errors.As(err, &dup) {
		t.Fatalf("error: got %v, want *DuplicateEnumeratorError", err)
	}
	if dup.Enum != "Color" || dup.Name != "RED" {
		t.Errorf("error fields: got %s/%s, want Color/RED", dup.Enum, dup.Name)
	}
}

func TestBuildSameNameAcrossKinds(t *testing.T) {
	// A function and a struct may share a name without ambiguity.
	raw := RawDeclarations{
		Functions: []RawFunction{{Name: "point", Return: Primitive("int")}},
		Structs:   []RawStruct{{Name: "point", Fields: []Field{{Name: "x", Type: Primitive("int")}}}},
	}
	if _, err := Build(raw, LP64()); err != nil {
		t.Fatalf("Build: %v", err)
	}
}

func TestBuildUnresolvedReferences(t *testing.T) {
	t.Run("struct_field", func(t *testing.T) {
		raw := RawDeclarations{
			Structs: []RawStruct{
				{Name: "Wrapper", Fields: []Field{{Name: "m", Type: StructRef("Missing")}}},
			},
		}
		_, err := Build(raw, LP64())
		var unresolved *UnresolvedTypeReferenceError
		if !errors.As(err, &unresolved) {
			t.Fatalf("error: got %v, want *UnresolvedTypeReferenceError", err)
		}
		if unresolved.Symbol != "Wrapper" {
			t.Errorf("symbol: got %q, want Wrapper", unresolved.Symbol)
		}
	})

	t.Run("function_param", func(t *testing.T) {
		raw := RawDeclarations{
			Functions: []RawFunction{
				{Name: "paint", Return: Primitive("void"), Params: []TypeRef{EnumRef("Color")}},
			},
		}
		_, err := Build(raw, LP64())
		var unresolved *UnresolvedTypeReferenceError
		if !errors.As(err, &unresolved) {
			t.Fatalf("error: got %v, want *UnresolvedTypeReferenceError", err)
		}
		if unresolved.Symbol != "paint" {
			t.Errorf("symbol: got %q, want paint", unresolved.Symbol)
		}
	})

	t.Run("pointer_to_undeclared", func(t *testing.T) {
		raw := RawDeclarations{
			Functions: []RawFunction{
				{Name: "touch", Return: Primitive("void"), Params: []TypeRef{PointerTo(StructRef("Ghost"))}},
			},
		}
		_, err := Build(raw, LP64())
		var unresolved *UnresolvedTypeReferenceError
		if !errors.As(err, &unresolved) {
			t.Fatalf("error: got %v, want *UnresolvedTypeReferenceError", err)
		}
	})
}

func TestBuildUnknownPrimitiveInField(t *testing.T) {
	raw := RawDeclarations{
		Structs: []RawStruct{
			{Name: "Odd", Fields: []Field{{Name: "q", Type: Primitive("quad")}}},
		},
	}
	_, err := Build(raw, LP64())
	var unknown *UnknownPrimitiveError
	if !errors.As(err, &unknown) {
		t.Fatalf("error: got %v, want *UnknownPrimitiveError", err)
	}
}

func TestBuildEnumsKeepDeclaredValues(t *testing.T) {
	raw := RawDeclarations{
		Enums: []RawEnum{
			{Name: "Status", Enumerators: []RawEnumerator{
				{Name: "OK", Value: 0},
				{Name: "GONE", Value: 410},
				{Name: "TEAPOT", Value: 418},
			}},
		},
	}

	tab, err := Build(raw, LP64())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	status, ok := tab.Enum("Status")
	if !ok {
		t.Fatal("Status not found")
	}
	want := map[string]int64{"OK": 0, "GONE": 410, "TEAPOT": 418}
	if diff := cmp.Diff(want, status.Enumerators); diff != "" {
		t.Errorf("enumerators mismatch (-want +got):\n%s", diff)
	}
	if status.Width != EnumWidth {
		t.Errorf("width: got %d, want %d", status.Width, EnumWidth)
	}
}
