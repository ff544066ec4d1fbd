// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/lockstep/internal/core/domain"

// ManifestLoader defines the interface for loading a pinned-dependency manifest.
//
//go:generate go run go.uber.org/mock/mockgen -source=manifest_loader.go -destination=mocks/mock_manifest_loader.go -package=mocks
type ManifestLoader interface {
	// Load reads and validates the manifest at the given path.
	// The returned manifest is immutable.
	Load(path string) (*domain.Manifest, error)
}
