package ports

import (
	"io"

	"go.trai.ch/lockstep/internal/core/domain"
)

// Digester defines the interface for computing content digests.
//
//go:generate go run go.uber.org/mock/mockgen -source=digester.go -destination=mocks/mock_digester.go -package=mocks
type Digester interface {
	// DigestReader computes the digest of everything readable from r.
	DigestReader(r io.Reader) (domain.Digest, error)

	// DigestFile computes the digest of a file's content.
	DigestFile(path string) (domain.Digest, error)
}
