package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// Environment describes the installation target: the interpreter version and
// the platform the manifest's markers are evaluated against.
type Environment struct {
	// PythonVersion is the full target interpreter version (e.g. "3.8.10").
	PythonVersion string

	// Platform is the sys_platform value (e.g. "linux", "darwin", "win32").
	Platform string

	// Machine is the platform_machine value (e.g. "x86_64", "arm64").
	Machine string
}

// MarkerValue resolves a marker variable name against the environment.
func (e Environment) MarkerValue(name string) (string, bool) {
	switch name {
	case "python_version":
		return majorMinor(e.PythonVersion), true
	case "python_full_version":
		return e.PythonVersion, true
	case "sys_platform":
		return e.Platform, true
	case "platform_machine":
		return e.Machine, true
	default:
		return "", false
	}
}

// Fingerprint creates a deterministic hash of the environment for keying
// installed state. Identical environments always produce the same ID.
func (e Environment) Fingerprint() string {
	fields := map[string]string{
		"python_full_version": e.PythonVersion,
		"sys_platform":        e.Platform,
		"platform_machine":    e.Machine,
	}

	// Sort keys for deterministic ordering
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var builder strings.Builder
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(":")
		builder.WriteString(fields[k])
		builder.WriteString(";")
	}

	hash := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(hash[:])
}

func majorMinor(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}
