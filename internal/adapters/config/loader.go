package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Load reads the settings file from the given working directory and applies
// defaults. A missing file is not an error; defaults are returned.
func Load(cwd string) (*Settings, error) {
	path := filepath.Join(cwd, DefaultFilename)

	var settings Settings
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the working directory
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, zerr.With(zerr.Wrap(err, "failed to read settings file"), "path", path)
	default:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to parse settings file"), "path", path)
		}
	}

	settings.applyDefaults()
	if settings.Progress != "auto" && settings.Progress != "plain" && settings.Progress != "none" {
		return nil, zerr.With(zerr.New("invalid progress mode"), "progress", settings.Progress)
	}
	return &settings, nil
}

// Environment derives the marker-evaluation environment from the settings.
func (s *Settings) Environment() domain.Environment {
	return domain.Environment{
		PythonVersion: s.Python,
		Platform:      s.Platform,
		Machine:       s.Machine,
	}
}
