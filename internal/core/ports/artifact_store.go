package ports

import (
	"io"

	"go.trai.ch/lockstep/internal/core/domain"
)

// ArtifactStore is a content-addressed store for verified artifacts.
// Content is keyed by digest; anything the store holds has already been
// verified against that digest at write time.
//
//go:generate go run go.uber.org/mock/mockgen -source=artifact_store.go -destination=mocks/mock_artifact_store.go -package=mocks
type ArtifactStore interface {
	// Contains reports whether the store already holds content for the digest.
	Contains(digest domain.Digest) bool

	// Put streams content into the store, verifying it against the digest.
	// On mismatch nothing is committed and ErrIntegrityMismatch is returned
	// with expected and actual digests attached. Returns the stored path.
	Put(digest domain.Digest, r io.Reader) (string, error)

	// Path returns the filesystem path of stored content.
	// Returns an error if the digest is not present.
	Path(digest domain.Digest) (string, error)
}
