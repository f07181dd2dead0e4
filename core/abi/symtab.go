package abi

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/abiguard-labs/abiguard/core/finding"
)

// SymbolTable holds one library version's exported symbols with all struct
// layouts resolved. It is built once from the external parser's declaration
// list and read-only afterwards.
type SymbolTable struct {
	profile   Profile
	functions map[string]FunctionSignature
	structs   map[string]*StructLayout
	enums     map[string]EnumDefinition

	// declaredStructs tracks struct names before layout resolution, so a
	// pointer to a not-yet-resolved struct validates without its layout.
	declaredStructs map[string]bool
}

// Build constructs a symbol table from raw declarations under the given
// profile. It fails with DuplicateSymbolError, DuplicateEnumeratorError,
// UnresolvedTypeReferenceError, CyclicStructDependencyError, or
// UnknownPrimitiveError; any such failure
// means the external parser produced an invalid table and no comparison may
// run against it.
func Build(raw RawDeclarations, profile Profile) (*SymbolTable, error) {
	t := &SymbolTable{
		profile:   profile,
		functions: make(map[string]FunctionSignature, len(raw.Functions)),
		structs:   make(map[string]*StructLayout, len(raw.Structs)),
		enums:     make(map[string]EnumDefinition, len(raw.Enums)),
	}

	rawStructs := make(map[string]RawStruct, len(raw.Structs))
	t.declaredStructs = make(map[string]bool, len(raw.Structs))
	for _, s := range raw.Structs {
		if _, dup := rawStructs[s.Name]; dup {
			return nil, &DuplicateSymbolError{Name: s.Name, Kind: finding.KindStruct}
		}
		rawStructs[s.Name] = s
		t.declaredStructs[s.Name] = true
	}

	for _, e := range raw.Enums {
		if _, dup := t.enums[e.Name]; dup {
			return nil, &DuplicateSymbolError{Name: e.Name, Kind: finding.KindEnum}
		}
		values := make(map[string]int64, len(e.Enumerators))
		for _, en := range e.Enumerators {
			if _, dup := values[en.Name]; dup {
				return nil, &DuplicateEnumeratorError{Enum: e.Name, Name: en.Name}
			}
			values[en.Name] = en.Value
		}
		t.enums[e.Name] = EnumDefinition{Name: e.Name, Width: EnumWidth, Enumerators: values}
	}

	if err := t.resolveStructs(rawStructs); err != nil {
		return nil, err
	}

	for _, f := range raw.Functions {
		if _, dup := t.functions[f.Name]; dup {
			return nil, &DuplicateSymbolError{Name: f.Name, Kind: finding.KindFunction}
		}
		if _, err := t.extentFor(f.Name, f.Return); err != nil {
			return nil, fmt.Errorf("function %s return type: %w", f.Name, err)
		}
		for i, p := range f.Params {
			if _, err := t.extentFor(f.Name, p); err != nil {
				return nil, fmt.Errorf("function %s parameter %d: %w", f.Name, i, err)
			}
		}
		t.functions[f.Name] = FunctionSignature{Name: f.Name, Return: f.Return, Params: f.Params}
	}

	Logger().Debug("symbol table built",
		zap.String("profile", profile.Name),
		zap.Int("functions", len(t.functions)),
		zap.Int("structs", len(t.structs)),
		zap.Int("enums", len(t.enums)))

	return t, nil
}

// resolveStructs lays out all structs in dependency order: a struct must be
// fully laid out before any struct that embeds it by value. Pointer members
// do not order resolution since their extent is fixed by the profile.
func (t *SymbolTable) resolveStructs(rawStructs map[string]RawStruct) error {
	names := make([]string, 0, len(rawStructs))
	for name := range rawStructs {
		names = append(names, name)
	}
	sort.Strings(names)

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(rawStructs))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			// Trim the path to the cycle entry point.
			start := 0
			for i, n := range path {
				if n == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), name)
			return &CyclicStructDependencyError{Cycle: cycle}
		}

		state[name] = visiting
		raw := rawStructs[name]
		for _, field := range raw.Fields {
			dep, ok := valueStructDep(field.Type)
			if !ok {
				continue
			}
			if _, declared := rawStructs[dep]; !declared {
				return &UnresolvedTypeReferenceError{Symbol: name, Ref: "struct " + dep}
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done

		resolved, err := ComputeLayout(raw.Fields, t.resolverFor(name), raw.AlignOverride)
		if err != nil {
			return fmt.Errorf("struct %s: %w", name, err)
		}
		t.structs[name] = &StructLayout{Name: name, Fields: raw.Fields, Resolved: resolved}
		return nil
	}

	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// valueStructDep returns the struct name a field type depends on by value.
// Pointers never produce a dependency, whatever they point at.
func valueStructDep(ref TypeRef) (string, bool) {
	if ref.Kind == TypeStruct {
		return ref.Name, true
	}
	return "", false
}

// resolverFor returns an ExtentResolver that attributes unresolved
// references to the named declaring symbol.
func (t *SymbolTable) resolverFor(symbol string) ExtentResolver {
	return func(ref TypeRef) (Extent, error) {
		return t.extentFor(symbol, ref)
	}
}

func (t *SymbolTable) extentFor(symbol string, ref TypeRef) (Extent, error) {
	switch ref.Kind {
	case TypePrimitive:
		return t.profile.PrimitiveExtent(ref.Name)
	case TypePointer:
		if ref.Elem != nil {
			if err := t.checkDeclared(symbol, *ref.Elem); err != nil {
				return Extent{}, err
			}
		}
		return t.profile.Pointer, nil
	case TypeEnum:
		if _, ok := t.enums[ref.Name]; !ok {
			return Extent{}, &UnresolvedTypeReferenceError{Symbol: symbol, Ref: ref.String()}
		}
		return Extent{Size: EnumWidth, Align: EnumWidth}, nil
	case TypeStruct:
		s, ok := t.structs[ref.Name]
		if !ok {
			return Extent{}, &UnresolvedTypeReferenceError{Symbol: symbol, Ref: ref.String()}
		}
		return Extent{Size: s.Resolved.Size, Align: s.Resolved.Align}, nil
	default:
		return Extent{}, fmt.Errorf("symbol %q: malformed type reference kind %q", symbol, ref.Kind)
	}
}

// checkDeclared validates that a pointee type is declared, without needing
// its layout.
func (t *SymbolTable) checkDeclared(symbol string, ref TypeRef) error {
	switch ref.Kind {
	case TypePrimitive:
		_, err := t.profile.PrimitiveExtent(ref.Name)
		return err
	case TypePointer:
		if ref.Elem != nil {
			return t.checkDeclared(symbol, *ref.Elem)
		}
		return nil
	case TypeEnum:
		if _, ok := t.enums[ref.Name]; !ok {
			return &UnresolvedTypeReferenceError{Symbol: symbol, Ref: ref.String()}
		}
		return nil
	case TypeStruct:
		if !t.declaredStructs[ref.Name] {
			return &UnresolvedTypeReferenceError{Symbol: symbol, Ref: ref.String()}
		}
		return nil
	default:
		return fmt.Errorf("symbol %q: malformed type reference kind %q", symbol, ref.Kind)
	}
}

// Profile returns the profile the table was built against.
func (t *SymbolTable) Profile() Profile { return t.profile }

// Function looks up a function signature by name.
func (t *SymbolTable) Function(name string) (FunctionSignature, bool) {
	f, ok := t.functions[name]
	return f, ok
}

// Struct looks up a resolved struct layout by name.
func (t *SymbolTable) Struct(name string) (StructLayout, bool) {
	s, ok := t.structs[name]
	if !ok {
		return StructLayout{}, false
	}
	return *s, true
}

// Enum looks up an enum definition by name.
func (t *SymbolTable) Enum(name string) (EnumDefinition, bool) {
	e, ok := t.enums[name]
	return e, ok
}

// FunctionNames returns all function names, sorted.
func (t *SymbolTable) FunctionNames() []string { return slices.Sorted(maps.Keys(t.functions)) }

// StructNames returns all struct names, sorted.
func (t *SymbolTable) StructNames() []string { return slices.Sorted(maps.Keys(t.structs)) }

// EnumNames returns all enum names, sorted.
func (t *SymbolTable) EnumNames() []string { return slices.Sorted(maps.Keys(t.enums)) }

// Extent resolves any type reference against this table.
func (t *SymbolTable) Extent(ref TypeRef) (Extent, error) {
	return t.extentFor(ref.String(), ref)
}
