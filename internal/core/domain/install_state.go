package domain

import "time"

// InstallState records the outcome of installing one package. It is the unit
// of idempotency: a package whose recorded state matches the manifest and
// environment is not fetched or installed again.
type InstallState struct {
	// Package is the canonical package name.
	Package string `json:"package"`

	// Version is the installed version string.
	Version string `json:"version"`

	// Digest is the digest of the installed artifact, in algorithm:hex form.
	Digest string `json:"digest"`

	// EnvID is the environment fingerprint the package was installed for.
	EnvID string `json:"env_id"`

	// Path is where the artifact was materialized.
	Path string `json:"path"`

	// Timestamp is when the install completed.
	Timestamp time.Time `json:"timestamp"`
}
