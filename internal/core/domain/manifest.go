// Package domain contains the core domain models and business logic for the
// pinned-dependency manifest and its installation graph.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Category classifies a package within the manifest.
type Category string

const (
	// CategoryMain marks a runtime dependency.
	CategoryMain Category = "main"
	// CategoryDev marks a development-only dependency.
	CategoryDev Category = "dev"
)

// ArtifactKind identifies the source form of a fetchable artifact.
type ArtifactKind string

const (
	// KindWheel is a prebuilt binary distribution.
	KindWheel ArtifactKind = "wheel"
	// KindSdist is a source distribution.
	KindSdist ArtifactKind = "sdist"
	// KindURL is a direct URL reference.
	KindURL ArtifactKind = "url"
)

// Digest is a content hash in algorithm:hex form.
type Digest struct {
	Algorithm string
	Hex       string
}

// ParseDigest parses a digest string of the form "sha256:<hex>".
func ParseDigest(s string) (Digest, error) {
	algo, hexPart, ok := strings.Cut(s, ":")
	if !ok || algo == "" || hexPart == "" {
		return Digest{}, zerr.With(zerr.New("malformed digest"), "digest", s)
	}
	if _, err := hex.DecodeString(hexPart); err != nil {
		return Digest{}, zerr.With(zerr.Wrap(err, "malformed digest hex"), "digest", s)
	}
	return Digest{Algorithm: algo, Hex: strings.ToLower(hexPart)}, nil
}

// String returns the canonical algorithm:hex representation.
func (d Digest) String() string {
	return d.Algorithm + ":" + d.Hex
}

// Equal reports whether two digests denote the same content.
func (d Digest) Equal(o Digest) bool {
	return d.Algorithm == o.Algorithm && strings.EqualFold(d.Hex, o.Hex)
}

// IsZero reports whether the digest is unset.
func (d Digest) IsZero() bool {
	return d.Algorithm == "" && d.Hex == ""
}

// ArtifactDescriptor describes one fetchable file of a package together with
// its integrity hash.
type ArtifactDescriptor struct {
	Filename string
	Kind     ArtifactKind
	Digest   Digest
}

// DependencyRequirement is one edge of the dependency graph: the name of the
// required package, the version constraint the pinned version must satisfy,
// and an optional platform marker restricting the edge.
type DependencyRequirement struct {
	Name       InternedString
	Constraint string
	Marker     string
}

// PackageRecord describes a single pinned dependency.
type PackageRecord struct {
	// Name is the canonical package name and the unique key within a manifest.
	Name InternedString

	// Version is the exact pinned version string.
	Version InternedString

	// Category is main or dev.
	Category Category

	// PythonVersions is the interpreter constraint expression for this package.
	PythonVersions string

	// Marker optionally restricts the package to matching environments.
	Marker string

	// Dependencies lists the packages this record requires, in manifest order.
	Dependencies []DependencyRequirement

	// Artifacts are the fetchable files recorded for this package.
	Artifacts []ArtifactDescriptor
}

// SelectArtifact picks the artifact to install: the first wheel when present,
// otherwise the first sdist, otherwise the first URL artifact.
// Returns ErrMissingArtifact when the record carries none.
func (p *PackageRecord) SelectArtifact() (ArtifactDescriptor, error) {
	for _, kind := range []ArtifactKind{KindWheel, KindSdist, KindURL} {
		for _, a := range p.Artifacts {
			if a.Kind == kind {
				return a, nil
			}
		}
	}
	return ArtifactDescriptor{}, zerr.With(ErrMissingArtifact, "package", p.Name.String())
}

// Manifest is the complete pinned-dependency record. It is produced once by
// an external resolution step and is immutable afterwards; installation reads
// it but never mutates it.
type Manifest struct {
	// LockVersion is the manifest format version (e.g. "2.0").
	LockVersion string

	// PythonVersions is the interpreter range the whole manifest supports.
	PythonVersions string

	// ContentHash is the recorded digest over the canonical package listing.
	ContentHash string

	// Packages maps canonical package names to their records.
	Packages map[string]PackageRecord
}

// Package returns the record for the given name.
func (m *Manifest) Package(name string) (PackageRecord, bool) {
	p, ok := m.Packages[name]
	return p, ok
}

// Names returns all package names in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Packages))
	for name := range m.Packages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CanonicalContentHash computes the sha256 digest of the canonical package
// listing: one "name version digest..." line per package, sorted by name.
// Loaders compare this against the recorded ContentHash.
func (m *Manifest) CanonicalContentHash() string {
	var builder strings.Builder
	for _, name := range m.Names() {
		p := m.Packages[name]
		builder.WriteString(name)
		builder.WriteString(" ")
		builder.WriteString(p.Version.String())
		for _, a := range p.Artifacts {
			builder.WriteString(" ")
			builder.WriteString(a.Digest.String())
		}
		builder.WriteString("\n")
	}
	sum := sha256.Sum256([]byte(builder.String()))
	return "sha256:" + hex.EncodeToString(sum[:])
}
