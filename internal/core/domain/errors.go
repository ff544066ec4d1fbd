package domain

import "go.trai.ch/zerr"

var (
	// ErrPackageAlreadyExists is returned when attempting to add a package with a name that already exists.
	ErrPackageAlreadyExists = zerr.New("package already exists")

	// ErrPackageNotFound is returned when a requested package is not present in the manifest.
	ErrPackageNotFound = zerr.New("package not found")

	// ErrMissingDependency is returned when a package references a dependency that doesn't exist in the manifest.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the dependency graph.
	ErrCycleDetected = zerr.New("dependency cycle detected")

	// ErrUnresolvableConstraint is returned when a dependency constraint does not
	// admit the version pinned for that dependency in the same manifest.
	ErrUnresolvableConstraint = zerr.New("unresolvable version constraint")

	// ErrUnsupportedInterpreter is returned when the target interpreter version
	// falls outside the manifest's supported range.
	ErrUnsupportedInterpreter = zerr.New("unsupported interpreter version")

	// ErrIntegrityMismatch is returned when fetched content hashes differently
	// from the digest recorded in the manifest.
	ErrIntegrityMismatch = zerr.New("integrity mismatch")

	// ErrFetchFailed is returned when an artifact cannot be retrieved after the
	// configured number of attempts.
	ErrFetchFailed = zerr.New("artifact fetch failed")

	// ErrInstallFailed is returned when a verified artifact cannot be placed
	// into the target environment.
	ErrInstallFailed = zerr.New("package install failed")

	// ErrMissingArtifact is returned when a package record carries no artifact
	// usable on the target environment.
	ErrMissingArtifact = zerr.New("no installable artifact")

	// ErrInvalidManifest is returned when the manifest file cannot be parsed or
	// violates the lock format.
	ErrInvalidManifest = zerr.New("invalid manifest")

	// ErrInvalidVersion is returned when a version string cannot be parsed.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrInvalidConstraint is returned when a constraint expression cannot be parsed.
	ErrInvalidConstraint = zerr.New("invalid constraint")

	// ErrInvalidMarker is returned when a platform marker expression cannot be parsed.
	ErrInvalidMarker = zerr.New("invalid marker expression")

	// ErrInstallExecutionFailed signals that one or more packages failed during
	// an install run. Per-package causes are attached as joined errors.
	ErrInstallExecutionFailed = zerr.New("install execution failed")
)
