package driver

import (
	"context"

	"github.com/abiguard-labs/abiguard/core/abi"
)

// DeclarationSource is the interface each front end must implement to feed
// the engine. The engine never reads library sources or objects itself; a
// source hands it the structured, pre-filtered declaration list for one
// version.
type DeclarationSource interface {
	// LoadVersion reads one version's declaration list from the given
	// location. Implementations decide the on-disk format; they must
	// already have applied language defaulting rules (e.g. implicit
	// enumerator values) so the result is fully explicit.
	LoadVersion(ctx context.Context, path string) (abi.RawDeclarations, error)
}
