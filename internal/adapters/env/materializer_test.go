package env_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/adapters/env"
	"go.trai.ch/lockstep/internal/core/domain"
)

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func record(name string) *domain.PackageRecord {
	return &domain.PackageRecord{
		Name:    domain.NewInternedString(name),
		Version: domain.NewInternedString("1.0.0"),
	}
}

func TestMaterializer_Materialize(t *testing.T) {
	root := t.TempDir()
	mat, err := env.NewMaterializer(root)
	require.NoError(t, err)

	artifact := writeArtifact(t, "six-1.16.0-py3-none-any.whl", "wheel bytes")
	path, err := mat.Materialize(context.Background(), record("six"), artifact)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "lib", "six", "six-1.16.0-py3-none-any.whl"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "wheel bytes", string(data))
	assert.True(t, mat.Installed(path))
}

func TestMaterializer_ReplacesStaleVersion(t *testing.T) {
	root := t.TempDir()
	mat, err := env.NewMaterializer(root)
	require.NoError(t, err)

	oldPath, err := mat.Materialize(context.Background(), record("six"), writeArtifact(t, "six-1.15.0.whl", "old"))
	require.NoError(t, err)

	newPath, err := mat.Materialize(context.Background(), record("six"), writeArtifact(t, "six-1.16.0.whl", "new"))
	require.NoError(t, err)

	assert.False(t, mat.Installed(oldPath), "stale file must be removed")
	assert.True(t, mat.Installed(newPath))
}

func TestMaterializer_Installed(t *testing.T) {
	mat, err := env.NewMaterializer(t.TempDir())
	require.NoError(t, err)

	assert.False(t, mat.Installed(""))
	assert.False(t, mat.Installed("/nonexistent/path"))
}

func TestMaterializer_CancelledContext(t *testing.T) {
	mat, err := env.NewMaterializer(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = mat.Materialize(ctx, record("six"), writeArtifact(t, "six.whl", "x"))
	require.ErrorIs(t, err, context.Canceled)
}
