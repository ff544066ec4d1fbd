// Package cas implements the content-addressed artifact store.
package cas

import (
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

const dirPerm = 0o750

var _ ports.ArtifactStore = (*Store)(nil)

// ErrArtifactNotStored is returned when a digest is not present in the store.
var ErrArtifactNotStored = zerr.New("artifact not in store")

// Store implements ports.ArtifactStore on the local filesystem.
// Content lives under <root>/<algorithm>/<hex>; everything under root has
// been verified against its digest at write time.
type Store struct {
	root     string
	digester ports.Digester
}

// NewStore creates an artifact store rooted at the given directory.
func NewStore(root string, digester ports.Digester) (*Store, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create artifact store"), "root", root)
	}
	return &Store{root: root, digester: digester}, nil
}

// Contains reports whether the store already holds content for the digest.
func (s *Store) Contains(digest domain.Digest) bool {
	_, err := os.Stat(s.pathFor(digest))
	return err == nil
}

// Put streams content into the store, verifying it against the digest.
// The content is written to a temporary file first and only renamed into
// place after the digest check passes, so a mismatch commits nothing.
func (s *Store) Put(digest domain.Digest, r io.Reader) (string, error) {
	if digest.Algorithm != "sha256" {
		return "", zerr.With(zerr.New("unsupported digest algorithm"), "algorithm", digest.Algorithm)
	}

	dir := filepath.Dir(s.pathFor(digest))
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", zerr.Wrap(err, "failed to create store directory")
	}

	tmp, err := os.CreateTemp(s.root, "incoming-*")
	if err != nil {
		return "", zerr.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmp.Name()

	actual, err := s.digester.DigestReader(io.TeeReader(r, tmp))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", zerr.Wrap(err, "failed to write artifact")
	}

	if !actual.Equal(digest) {
		_ = os.Remove(tmpPath)
		mismatch := zerr.With(domain.ErrIntegrityMismatch, "expected", digest.String())
		return "", zerr.With(mismatch, "actual", actual.String())
	}

	final := s.pathFor(digest)
	if err := os.Rename(tmpPath, final); err != nil {
		_ = os.Remove(tmpPath)
		return "", zerr.Wrap(err, "failed to commit artifact")
	}
	return final, nil
}

// Path returns the filesystem path of stored content.
func (s *Store) Path(digest domain.Digest) (string, error) {
	path := s.pathFor(digest)
	if _, err := os.Stat(path); err != nil {
		return "", zerr.With(ErrArtifactNotStored, "digest", digest.String())
	}
	return path, nil
}

func (s *Store) pathFor(digest domain.Digest) string {
	return filepath.Join(s.root, digest.Algorithm, digest.Hex)
}
