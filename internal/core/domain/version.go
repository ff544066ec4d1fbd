package domain

import (
	"regexp"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// Release stage ordering: dev < alpha < beta < rc < final < post.
const (
	stageDev = iota
	stageAlpha
	stageBeta
	stageRC
	stageFinal
	stagePost
)

var versionPattern = regexp.MustCompile(
	`^v?(\d+(?:\.\d+)*)(?:[.-]?(a|b|rc)\.?(\d+))?(?:\.post(\d+))?(?:\.dev(\d+))?$`,
)

// Version is a parsed package version. It understands the subset of PEP 440
// that pinned manifests actually contain: dotted releases with optional
// pre-release (aN, bN, rcN), post and dev segments. Epochs and local version
// labels are not supported.
type Version struct {
	release []int
	stage   int
	stageN  int
	orig    string
}

// ParseVersion parses a version string.
func ParseVersion(s string) (Version, error) {
	trimmed := strings.TrimSpace(strings.ToLower(s))
	m := versionPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Version{}, zerr.With(ErrInvalidVersion, "version", s)
	}

	parts := strings.Split(m[1], ".")
	release := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, zerr.With(ErrInvalidVersion, "version", s)
		}
		release[i] = n
	}

	v := Version{release: release, stage: stageFinal, orig: s}

	switch {
	case m[5] != "": // dev sorts below everything else at the same release
		v.stage = stageDev
		v.stageN, _ = strconv.Atoi(m[5])
	case m[2] != "":
		switch m[2] {
		case "a":
			v.stage = stageAlpha
		case "b":
			v.stage = stageBeta
		case "rc":
			v.stage = stageRC
		}
		v.stageN, _ = strconv.Atoi(m[3])
	case m[4] != "":
		v.stage = stagePost
		v.stageN, _ = strconv.Atoi(m[4])
	}

	return v, nil
}

// MustParseVersion parses a version string and panics on failure.
// Intended for tests and literals.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or 1 when v is respectively less than, equal to or
// greater than o. Release segments compare component-wise with missing
// components treated as zero, so 1.2 equals 1.2.0.
func (v Version) Compare(o Version) int {
	n := max(len(v.release), len(o.release))
	for i := 0; i < n; i++ {
		a, b := v.component(i), o.component(i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}

	if v.stage != o.stage {
		if v.stage < o.stage {
			return -1
		}
		return 1
	}
	if v.stageN != o.stageN {
		if v.stageN < o.stageN {
			return -1
		}
		return 1
	}
	return 0
}

// Release returns a copy of the numeric release components.
func (v Version) Release() []int {
	out := make([]int, len(v.release))
	copy(out, v.release)
	return out
}

// IsPreRelease reports whether the version is a dev, alpha, beta or rc release.
func (v Version) IsPreRelease() bool {
	return v.stage < stageFinal
}

// String returns the original version string.
func (v Version) String() string {
	return v.orig
}

func (v Version) component(i int) int {
	if i < len(v.release) {
		return v.release[i]
	}
	return 0
}
