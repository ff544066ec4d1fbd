package fs_test

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/adapters/fs"
)

func TestDigester_DigestReader(t *testing.T) {
	d := fs.NewDigester()

	digest, err := d.DigestReader(strings.NewReader("hello"))
	require.NoError(t, err)

	want := sha256.Sum256([]byte("hello"))
	assert.Equal(t, "sha256", digest.Algorithm)
	assert.Equal(t, hex.EncodeToString(want[:]), digest.Hex)
}

func TestDigester_DigestFile(t *testing.T) {
	d := fs.NewDigester()

	path := filepath.Join(t.TempDir(), "artifact.whl")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	fromFile, err := d.DigestFile(path)
	require.NoError(t, err)

	fromReader, err := d.DigestReader(strings.NewReader("content"))
	require.NoError(t, err)
	assert.True(t, fromFile.Equal(fromReader))
}

func TestDigester_DigestFile_Missing(t *testing.T) {
	d := fs.NewDigester()
	_, err := d.DigestFile(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
