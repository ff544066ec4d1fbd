package manifest

// manifestDTO mirrors the on-disk TOML structure of a lock manifest.
type manifestDTO struct {
	LockVersion    string       `toml:"lock-version"`
	PythonVersions string       `toml:"python-versions"`
	ContentHash    string       `toml:"content-hash"`
	Packages       []packageDTO `toml:"package"`
}

// packageDTO represents one pinned package entry.
//
// Dependencies values are either a bare constraint string
//
//	six = ">=1.12"
//
// or a table carrying a marker alongside the constraint
//
//	importlib-metadata = { version = ">=1.0", marker = "python_version < '3.8'" }
type packageDTO struct {
	Name           string         `toml:"name"`
	Version        string         `toml:"version"`
	Category       string         `toml:"category"`
	PythonVersions string         `toml:"python-versions"`
	Marker         string         `toml:"marker"`
	Dependencies   map[string]any `toml:"dependencies"`
	Files          []fileDTO      `toml:"files"`
}

// fileDTO describes one fetchable artifact of a package.
type fileDTO struct {
	File string `toml:"file"`
	Hash string `toml:"hash"`
	Kind string `toml:"kind"`
}
