package ports

import (
	"context"

	"go.trai.ch/lockstep/internal/core/domain"
)

// Materializer places verified artifacts into the target environment.
//
// Implementations must only ever be handed artifacts that already passed
// integrity verification; materialization happens strictly after the digest
// check.
//
//go:generate go run go.uber.org/mock/mockgen -source=materializer.go -destination=mocks/mock_materializer.go -package=mocks
type Materializer interface {
	// Materialize installs the artifact at artifactPath into the environment,
	// replacing any stale version of the same package first.
	// Returns the installed path.
	Materialize(ctx context.Context, pkg *domain.PackageRecord, artifactPath string) (string, error)

	// Installed reports whether the given path still exists in the environment.
	Installed(path string) bool
}
