// Package fs provides filesystem-backed hashing for artifacts.
package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Digester = (*Digester)(nil)

// Digester computes sha256 content digests.
type Digester struct{}

// NewDigester creates a new Digester.
func NewDigester() *Digester {
	return &Digester{}
}

// DigestReader computes the digest of everything readable from r.
func (d *Digester) DigestReader(r io.Reader) (domain.Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return domain.Digest{}, zerr.Wrap(err, "failed to hash content")
	}
	return domain.Digest{Algorithm: "sha256", Hex: hex.EncodeToString(h.Sum(nil))}, nil
}

// DigestFile computes the digest of a file's content.
func (d *Digester) DigestFile(path string) (domain.Digest, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest, err := d.DigestReader(f)
	if err != nil {
		return domain.Digest{}, zerr.With(err, "path", path)
	}
	return digest, nil
}
