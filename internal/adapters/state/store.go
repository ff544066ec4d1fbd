// Package state implements the install-state store using a flat JSON file.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StateStore = (*Store)(nil)

// Store implements ports.StateStore using a flat JSON file. The file carries
// a checksum over its package entries; a mismatch means the file was edited
// or truncated, and the state is discarded so packages are installed afresh.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[string]domain.InstallState
}

type stateFile struct {
	Checksum string                         `json:"checksum"`
	Packages map[string]domain.InstallState `json:"packages"`
}

// NewStore creates a new StateStore backed by the file at the given path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]domain.InstallState),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, "failed to read install state")
	}

	if len(data) == 0 {
		return nil
	}

	var doc stateFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return zerr.Wrap(err, "failed to unmarshal install state")
	}

	if doc.Checksum != checksum(doc.Packages) {
		// Corrupt state only costs a reinstall, never a wrong skip.
		return nil
	}

	if doc.Packages != nil {
		s.cache = doc.Packages
	}
	return nil
}

func (s *Store) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := stateFile{Checksum: checksum(s.cache), Packages: s.cache}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal install state")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for install state")
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write install state")
	}

	return nil
}

// checksum fingerprints the package entries. json.Marshal sorts map keys and
// time.Time round-trips through RFC 3339, so the encoding is stable.
func checksum(packages map[string]domain.InstallState) string {
	data, err := json.Marshal(packages)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Get retrieves the install state for a given package name.
func (s *Store) Get(pkg string) (*domain.InstallState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.cache[pkg]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// Put stores the install state.
func (s *Store) Put(st domain.InstallState) error {
	s.mu.Lock()
	s.cache[st.Package] = st
	s.mu.Unlock()

	return s.save()
}

// Delete removes the install state for a package.
func (s *Store) Delete(pkg string) error {
	s.mu.Lock()
	if _, ok := s.cache[pkg]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.cache, pkg)
	s.mu.Unlock()

	return s.save()
}

// All returns the install state of every recorded package.
func (s *Store) All() ([]domain.InstallState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]domain.InstallState, 0, len(s.cache))
	for _, st := range s.cache {
		states = append(states, st)
	}
	return states, nil
}
