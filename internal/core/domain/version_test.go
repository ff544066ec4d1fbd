package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/core/domain"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"1.0.0", false},
		{"20.1.0", false},
		{"2020.6.8", false},
		{"1.4", false},
		{"5", false},
		{"1.0.0rc1", false},
		{"1.0.0a2", false},
		{"1.0.0b1", false},
		{"2.1.0.post1", false},
		{"1.0.0.dev3", false},
		{"v1.2.3", false},
		{"", true},
		{"abc", true},
		{"1..2", true},
		{"1.0-beta", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := domain.ParseVersion(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.2", "1.2.0", 0},
		{"1.2.3", "1.2.4", -1},
		{"1.10.0", "1.9.0", 1},
		{"2.0.0", "10.0.0", -1},
		{"1.0.0a1", "1.0.0", -1},
		{"1.0.0a1", "1.0.0b1", -1},
		{"1.0.0b2", "1.0.0rc1", -1},
		{"1.0.0rc1", "1.0.0rc2", -1},
		{"1.0.0", "1.0.0.post1", -1},
		{"1.0.0.dev1", "1.0.0a1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			a := domain.MustParseVersion(tt.a)
			b := domain.MustParseVersion(tt.b)
			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, -tt.want, b.Compare(a))
		})
	}
}

func TestVersion_IsPreRelease(t *testing.T) {
	require.True(t, domain.MustParseVersion("1.0.0rc1").IsPreRelease())
	require.True(t, domain.MustParseVersion("1.0.0.dev1").IsPreRelease())
	require.False(t, domain.MustParseVersion("1.0.0").IsPreRelease())
	require.False(t, domain.MustParseVersion("1.0.0.post1").IsPreRelease())
}

func TestVersion_String_RoundTrip(t *testing.T) {
	v := domain.MustParseVersion("20.1.0")
	assert.Equal(t, "20.1.0", v.String())
}
