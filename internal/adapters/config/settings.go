// Package config provides the settings loader for lockstep.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultFilename is the settings file looked up in the working directory.
const DefaultFilename = "lockstep.yaml"

// DefaultManifest is the manifest file installed when none is specified.
const DefaultManifest = "lockstep.lock"

// Settings holds the tool configuration. Zero values are filled with
// defaults by the loader.
type Settings struct {
	// Registry is the base URL artifacts are fetched from.
	Registry string `yaml:"registry"`

	// Manifest is the path of the manifest file to install.
	Manifest string `yaml:"manifest"`

	// CacheDir holds the content-addressed artifact store.
	CacheDir string `yaml:"cache_dir"`

	// EnvDir is the directory packages are materialized into, together with
	// the install-state record for that environment.
	EnvDir string `yaml:"env_dir"`

	// Python is the full target interpreter version (e.g. "3.8.10").
	Python string `yaml:"python"`

	// Platform is the sys_platform value markers are evaluated against.
	Platform string `yaml:"platform"`

	// Machine is the platform_machine value markers are evaluated against.
	Machine string `yaml:"machine"`

	// Parallelism bounds concurrent package installs. 0 means NumCPU.
	Parallelism int `yaml:"parallelism"`

	// FailFast stops scheduling new packages after the first failure.
	FailFast bool `yaml:"fail_fast"`

	// MaxRetries bounds fetch attempts per artifact beyond the first.
	MaxRetries int `yaml:"max_retries"`

	// IncludeDev also installs dev-category packages.
	IncludeDev bool `yaml:"include_dev"`

	// Progress selects the progress renderer: "auto", "plain" or "none".
	Progress string `yaml:"progress"`

	// Verbose lowers the log level to debug.
	Verbose bool `yaml:"verbose"`
}

// applyDefaults fills unset fields.
func (s *Settings) applyDefaults() {
	if s.Registry == "" {
		s.Registry = "https://pypi.org/packages"
	}
	if s.Manifest == "" {
		s.Manifest = DefaultManifest
	}
	if s.CacheDir == "" {
		if base, err := os.UserCacheDir(); err == nil {
			s.CacheDir = filepath.Join(base, "lockstep")
		} else {
			s.CacheDir = ".lockstep-cache"
		}
	}
	if s.EnvDir == "" {
		s.EnvDir = ".lockstep"
	}
	if s.Python == "" {
		s.Python = "3.8.10"
	}
	if s.Platform == "" {
		s.Platform = hostPlatform()
	}
	if s.Machine == "" {
		s.Machine = hostMachine()
	}
	if s.Parallelism <= 0 {
		s.Parallelism = runtime.NumCPU()
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = 3
	}
	if s.Progress == "" {
		s.Progress = "auto"
	}
}

// hostPlatform maps GOOS to the sys_platform vocabulary markers use.
func hostPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "win32"
	default:
		return runtime.GOOS
	}
}

// hostMachine maps GOARCH to the platform_machine vocabulary markers use.
func hostMachine() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "i686"
	default:
		return runtime.GOARCH
	}
}
