package main

import (
	"errors"
	"testing"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"generic", errors.New("boom"), exitFailure},
		{"integrity", domain.ErrIntegrityMismatch, exitIntegrity},
		{"fetch", domain.ErrFetchFailed, exitFetch},
		{"constraint", domain.ErrUnresolvableConstraint, exitResolution},
		{"missing dep", domain.ErrMissingDependency, exitResolution},
		{"cycle", domain.ErrCycleDetected, exitResolution},
		{"interpreter", domain.ErrUnsupportedInterpreter, exitResolution},
		{"not found", domain.ErrPackageNotFound, exitResolution},
		{"invalid manifest", domain.ErrInvalidManifest, exitResolution},
		{
			"with metadata",
			zerr.With(domain.ErrFetchFailed, "package", "six"),
			exitFetch,
		},
		{
			"joined keeps integrity dominant",
			errors.Join(domain.ErrFetchFailed, domain.ErrIntegrityMismatch),
			exitIntegrity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
