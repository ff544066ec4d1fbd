package ports

import "go.trai.ch/lockstep/internal/core/domain"

// StateStore defines the interface for storing and retrieving installed-package state.
//
//go:generate go run go.uber.org/mock/mockgen -source=state_store.go -destination=mocks/mock_state_store.go -package=mocks
type StateStore interface {
	// Get retrieves the install state for a given package name.
	// Returns nil, nil if not found.
	Get(pkg string) (*domain.InstallState, error)

	// Put stores the install state.
	Put(state domain.InstallState) error

	// Delete removes the install state for a package. Deleting an absent
	// package is not an error.
	Delete(pkg string) error

	// All returns the install state of every recorded package.
	All() ([]domain.InstallState, error)
}
