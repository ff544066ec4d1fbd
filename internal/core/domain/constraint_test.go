package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/core/domain"
)

func TestConstraint_Matches(t *testing.T) {
	tests := []struct {
		constraint string
		version    string
		want       bool
	}{
		{"*", "1.0.0", true},
		{"", "1.0.0", true},
		{"==1.2.3", "1.2.3", true},
		{"==1.2.3", "1.2.4", false},
		{"1.2.3", "1.2.3", true}, // bare version means ==
		{"!=1.2.3", "1.2.4", true},
		{">=1.12", "1.12.0", true},
		{">=1.12", "1.11.9", false},
		{"<2.0", "1.9.9", true},
		{"<2.0", "2.0.0", false},
		{">1.0,<2.0", "1.5.0", true},
		{">1.0,<2.0", "2.1.0", false},
		{">=3.6,<4.0 || >=5.0", "5.1.0", true},
		{">=3.6,<4.0 || >=5.0", "4.2.0", false},
		{"==2.*", "2.7.18", true},
		{"==2.*", "3.0.0", false},
		{"!=3.0.*", "3.0.1", false},
		{"!=3.0.*", "3.1.0", true},
		{"~=2.2", "2.9.0", true},
		{"~=2.2", "3.0.0", false},
		{"~=2.2.1", "2.2.9", true},
		{"~=2.2.1", "2.3.0", false},
		{"^1.2.3", "1.9.0", true},
		{"^1.2.3", "2.0.0", false},
		{"^0.2.3", "0.2.9", true},
		{"^0.2.3", "0.3.0", false},
		{"^0.0.3", "0.0.3", true},
		{"^0.0.3", "0.0.4", false},
	}

	for _, tt := range tests {
		t.Run(tt.constraint+" / "+tt.version, func(t *testing.T) {
			c, err := domain.ParseConstraint(tt.constraint)
			require.NoError(t, err)

			got, err := c.MatchesString(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConstraint_Invalid(t *testing.T) {
	for _, input := range []string{">=abc", "==1..2", ">*"} {
		t.Run(input, func(t *testing.T) {
			_, err := domain.ParseConstraint(input)
			assert.Error(t, err)
		})
	}
}

func TestParseConstraint_Memoized(t *testing.T) {
	// Two parses of the same expression must agree; the second one is served
	// from the cache.
	c1, err := domain.ParseConstraint(">=1.12")
	require.NoError(t, err)
	c2, err := domain.ParseConstraint(">=1.12")
	require.NoError(t, err)

	ok1, _ := c1.MatchesString("1.13.0")
	ok2, _ := c2.MatchesString("1.13.0")
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, c1.String(), c2.String())
}
