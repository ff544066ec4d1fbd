package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/core/domain"
)

func TestParseDigest(t *testing.T) {
	d, err := domain.ParseDigest("sha256:AB12cd34")
	require.NoError(t, err)
	assert.Equal(t, "sha256", d.Algorithm)
	assert.Equal(t, "ab12cd34", d.Hex)
	assert.Equal(t, "sha256:ab12cd34", d.String())

	for _, input := range []string{"", "sha256", "sha256:", ":abcd", "sha256:zzzz"} {
		_, err := domain.ParseDigest(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestDigest_Equal(t *testing.T) {
	a, err := domain.ParseDigest("sha256:abcd")
	require.NoError(t, err)
	b, err := domain.ParseDigest("sha256:ABCD")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c, err := domain.ParseDigest("sha256:1234")
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}

func TestPackageRecord_SelectArtifact(t *testing.T) {
	rec := domain.PackageRecord{
		Name: domain.NewInternedString("six"),
		Artifacts: []domain.ArtifactDescriptor{
			{Filename: "six-1.15.0.tar.gz", Kind: domain.KindSdist},
			{Filename: "six-1.15.0-py2.py3-none-any.whl", Kind: domain.KindWheel},
		},
	}

	a, err := rec.SelectArtifact()
	require.NoError(t, err)
	assert.Equal(t, domain.KindWheel, a.Kind)

	empty := domain.PackageRecord{Name: domain.NewInternedString("empty")}
	_, err = empty.SelectArtifact()
	assert.ErrorIs(t, err, domain.ErrMissingArtifact)
}

func TestManifest_CanonicalContentHash(t *testing.T) {
	manifest := func() *domain.Manifest {
		return &domain.Manifest{
			LockVersion: "2.0",
			Packages: map[string]domain.PackageRecord{
				"six": {
					Name:    domain.NewInternedString("six"),
					Version: domain.NewInternedString("1.15.0"),
					Artifacts: []domain.ArtifactDescriptor{
						{Filename: "six-1.15.0.tar.gz", Kind: domain.KindSdist, Digest: domain.Digest{Algorithm: "sha256", Hex: "aa"}},
					},
				},
				"toolz": {
					Name:    domain.NewInternedString("toolz"),
					Version: domain.NewInternedString("0.10.0"),
					Artifacts: []domain.ArtifactDescriptor{
						{Filename: "toolz-0.10.0.tar.gz", Kind: domain.KindSdist, Digest: domain.Digest{Algorithm: "sha256", Hex: "bb"}},
					},
				},
			},
		}
	}

	first := manifest().CanonicalContentHash()
	assert.Equal(t, first, manifest().CanonicalContentHash(), "hash must be deterministic")

	changed := manifest()
	rec := changed.Packages["six"]
	rec.Version = domain.NewInternedString("1.16.0")
	changed.Packages["six"] = rec
	assert.NotEqual(t, first, changed.CanonicalContentHash())
}
