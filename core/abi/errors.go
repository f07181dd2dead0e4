package abi

import (
	"fmt"
	"strings"

	"github.com/abiguard-labs/abiguard/core/finding"
)

// UnknownPrimitiveError reports a primitive type name missing from the target
// profile's table.
type UnknownPrimitiveError struct {
	Name    string
	Profile string
}

func (e *UnknownPrimitiveError) Error() string {
	return fmt.Sprintf("unknown primitive type %q in profile %q", e.Name, e.Profile)
}

// DuplicateSymbolError reports the same name declared twice within one
// kind-namespace of a single version.
type DuplicateSymbolError struct {
	Name string
	Kind finding.SymbolKind
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("duplicate %s symbol %q", e.Kind, e.Name)
}

// DuplicateEnumeratorError reports the same enumerator name declared twice
// within one enum.
type DuplicateEnumeratorError struct {
	Enum string
	Name string
}

func (e *DuplicateEnumeratorError) Error() string {
	return fmt.Sprintf("enum %q declares enumerator %q twice", e.Enum, e.Name)
}

// UnresolvedTypeReferenceError reports a field, parameter, or return type
// that names a struct or enum never declared in this version.
type UnresolvedTypeReferenceError struct {
	Symbol string // the declaring symbol
	Ref    string // the undeclared type, C-like spelling
}

func (e *UnresolvedTypeReferenceError) Error() string {
	return fmt.Sprintf("symbol %q references undeclared type %q", e.Symbol, e.Ref)
}

// CyclicStructDependencyError reports a struct that embeds itself by value,
// directly or transitively. Pointer members do not participate in the cycle
// check since their extent is independent of the pointee.
type CyclicStructDependencyError struct {
	Cycle []string // struct names along the cycle, first repeated last
}

func (e *CyclicStructDependencyError) Error() string {
	return fmt.Sprintf("cyclic struct dependency: %s", strings.Join(e.Cycle, " -> "))
}
