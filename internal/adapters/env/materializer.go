// Package env materializes verified artifacts into the target environment.
package env

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

const dirPerm = 0o750

var _ ports.Materializer = (*Materializer)(nil)

// Materializer implements ports.Materializer on the local filesystem. Each
// package occupies <root>/lib/<name>/<filename>; replacing a package removes
// its directory first so no files from a previous version survive.
type Materializer struct {
	root string
}

// NewMaterializer creates a materializer rooted at the environment directory.
func NewMaterializer(root string) (*Materializer, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(filepath.Join(root, "lib"), dirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create environment"), "root", root)
	}
	return &Materializer{root: root}, nil
}

// Materialize copies the artifact into the package's directory. The write
// goes through a temporary name inside the package directory so a crash mid
// copy never leaves a plausible-looking install behind.
func (m *Materializer) Materialize(ctx context.Context, pkg *domain.PackageRecord, artifactPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pkgDir := filepath.Join(m.root, "lib", pkg.Name.String())
	if err := os.RemoveAll(pkgDir); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to remove stale install"), "package", pkg.Name.String())
	}
	if err := os.MkdirAll(pkgDir, dirPerm); err != nil {
		return "", zerr.Wrap(err, "failed to create package directory")
	}

	dest := filepath.Join(pkgDir, filepath.Base(artifactPath))
	if err := copyFile(artifactPath, dest); err != nil {
		_ = os.RemoveAll(pkgDir)
		failed := zerr.With(domain.ErrInstallFailed, "package", pkg.Name.String())
		return "", zerr.With(failed, "cause", err.Error())
	}
	return dest, nil
}

// Installed reports whether the given path still exists in the environment.
func (m *Materializer) Installed(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src) //nolint:gosec // Path comes from the artifact store
	if err != nil {
		return zerr.Wrap(err, "failed to open artifact")
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".partial-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmp.Name()

	_, err = io.Copy(tmp, in)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, "failed to copy artifact")
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, "failed to commit artifact")
	}
	return nil
}
