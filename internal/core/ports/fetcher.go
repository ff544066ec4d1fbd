package ports

import (
	"context"
	"io"

	"go.trai.ch/lockstep/internal/core/domain"
)

// Fetcher retrieves package artifacts from a registry.
//
//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch streams the artifact for the given package. The caller is
	// responsible for verifying the content against the recorded digest and
	// for closing the returned reader.
	//
	// Transient failures are retried internally up to a bounded count;
	// exhausted retries and permanent failures surface as ErrFetchFailed.
	Fetch(ctx context.Context, pkg string, artifact domain.ArtifactDescriptor) (io.ReadCloser, error)
}
