// Package manifest implements the lock-manifest loader.
package manifest

import (
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ManifestLoader = (*Loader)(nil)

// Loader implements ports.ManifestLoader for TOML lock manifests.
type Loader struct{}

// NewLoader creates a new manifest Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and validates the manifest at the given path.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", path)
	}

	var dto manifestDTO
	if err := toml.Unmarshal(data, &dto); err != nil {
		invalid := zerr.With(domain.ErrInvalidManifest, "path", path)
		return nil, zerr.With(invalid, "cause", err.Error())
	}

	if !supportedLockVersion(dto.LockVersion) {
		return nil, zerr.With(domain.ErrInvalidManifest, "lock_version", dto.LockVersion)
	}

	m := &domain.Manifest{
		LockVersion:    dto.LockVersion,
		PythonVersions: dto.PythonVersions,
		ContentHash:    dto.ContentHash,
		Packages:       make(map[string]domain.PackageRecord, len(dto.Packages)),
	}

	for _, pkg := range dto.Packages {
		record, err := convertPackage(pkg)
		if err != nil {
			return nil, err
		}
		if _, exists := m.Packages[pkg.Name]; exists {
			return nil, zerr.With(domain.ErrPackageAlreadyExists, "package", pkg.Name)
		}
		m.Packages[pkg.Name] = record
	}

	// Every dependency edge must point at a record in the same manifest.
	// Edges excluded by their marker are checked later, during planning,
	// because exclusion depends on the target environment.
	for name, record := range m.Packages {
		for _, req := range record.Dependencies {
			if _, ok := m.Packages[req.Name.String()]; !ok && req.Marker == "" {
				err := zerr.With(domain.ErrMissingDependency, "package", name)
				return nil, zerr.With(err, "dependency", req.Name.String())
			}
		}
	}

	if dto.ContentHash != "" {
		if computed := m.CanonicalContentHash(); computed != dto.ContentHash {
			err := zerr.With(domain.ErrIntegrityMismatch, "path", path)
			err = zerr.With(err, "expected", dto.ContentHash)
			return nil, zerr.With(err, "actual", computed)
		}
	}

	return m, nil
}

func supportedLockVersion(v string) bool {
	return v == "1" || v == "2" || strings.HasPrefix(v, "2.")
}

func convertPackage(pkg packageDTO) (domain.PackageRecord, error) {
	if pkg.Name == "" || pkg.Version == "" {
		return domain.PackageRecord{}, zerr.With(domain.ErrInvalidManifest, "package", pkg.Name)
	}
	if _, err := domain.ParseVersion(pkg.Version); err != nil {
		invalid := zerr.With(domain.ErrInvalidManifest, "package", pkg.Name)
		return domain.PackageRecord{}, zerr.With(invalid, "version", pkg.Version)
	}

	category, err := parseCategory(pkg)
	if err != nil {
		return domain.PackageRecord{}, err
	}

	deps, err := convertDependencies(pkg)
	if err != nil {
		return domain.PackageRecord{}, err
	}

	artifacts, err := convertFiles(pkg)
	if err != nil {
		return domain.PackageRecord{}, err
	}

	return domain.PackageRecord{
		Name:           domain.NewInternedString(pkg.Name),
		Version:        domain.NewInternedString(pkg.Version),
		Category:       category,
		PythonVersions: pkg.PythonVersions,
		Marker:         pkg.Marker,
		Dependencies:   deps,
		Artifacts:      artifacts,
	}, nil
}

func parseCategory(pkg packageDTO) (domain.Category, error) {
	switch pkg.Category {
	case "", string(domain.CategoryMain):
		return domain.CategoryMain, nil
	case string(domain.CategoryDev):
		return domain.CategoryDev, nil
	default:
		err := zerr.With(domain.ErrInvalidManifest, "package", pkg.Name)
		return "", zerr.With(err, "category", pkg.Category)
	}
}

func convertDependencies(pkg packageDTO) ([]domain.DependencyRequirement, error) {
	names := make([]string, 0, len(pkg.Dependencies))
	for name := range pkg.Dependencies {
		names = append(names, name)
	}
	slices.Sort(names)

	deps := make([]domain.DependencyRequirement, 0, len(names))
	for _, name := range names {
		req := domain.DependencyRequirement{Name: domain.NewInternedString(name)}

		switch value := pkg.Dependencies[name].(type) {
		case string:
			req.Constraint = value
		case map[string]any:
			if v, ok := value["version"].(string); ok {
				req.Constraint = v
			}
			if m, ok := value["marker"].(string); ok {
				req.Marker = m
			}
		default:
			err := zerr.With(domain.ErrInvalidManifest, "package", pkg.Name)
			return nil, zerr.With(err, "dependency", name)
		}

		if _, err := domain.ParseConstraint(req.Constraint); err != nil {
			invalid := zerr.With(domain.ErrInvalidManifest, "package", pkg.Name)
			invalid = zerr.With(invalid, "dependency", name)
			return nil, zerr.With(invalid, "constraint", req.Constraint)
		}
		deps = append(deps, req)
	}
	return deps, nil
}

func convertFiles(pkg packageDTO) ([]domain.ArtifactDescriptor, error) {
	if len(pkg.Files) == 0 {
		return nil, zerr.With(domain.ErrMissingArtifact, "package", pkg.Name)
	}

	artifacts := make([]domain.ArtifactDescriptor, 0, len(pkg.Files))
	for _, file := range pkg.Files {
		digest, err := domain.ParseDigest(file.Hash)
		if err != nil {
			invalid := zerr.With(domain.ErrInvalidManifest, "package", pkg.Name)
			invalid = zerr.With(invalid, "file", file.File)
			return nil, zerr.With(invalid, "hash", file.Hash)
		}
		artifacts = append(artifacts, domain.ArtifactDescriptor{
			Filename: file.File,
			Kind:     artifactKind(file),
			Digest:   digest,
		})
	}
	return artifacts, nil
}

// artifactKind uses the declared kind and falls back to the filename.
func artifactKind(file fileDTO) domain.ArtifactKind {
	switch file.Kind {
	case string(domain.KindWheel):
		return domain.KindWheel
	case string(domain.KindSdist):
		return domain.KindSdist
	case string(domain.KindURL):
		return domain.KindURL
	}
	switch {
	case strings.HasSuffix(file.File, ".whl"):
		return domain.KindWheel
	case strings.HasSuffix(file.File, ".tar.gz"), strings.HasSuffix(file.File, ".zip"):
		return domain.KindSdist
	default:
		return domain.KindURL
	}
}
