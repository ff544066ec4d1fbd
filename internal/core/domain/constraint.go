package domain

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/zerr"
)

// constraintCache memoizes parsed constraints. Manifests repeat the same
// specifier strings (">=1.12", "*", ...) across many packages, so parsing
// each distinct expression once is enough.
var constraintCache *lru.Cache[string, Constraint]

func init() {
	constraintCache, _ = lru.New[string, Constraint](512)
}

// Constraint is a parsed version constraint expression: comma-separated
// specifiers form a conjunction, "||" separates alternative conjunctions.
// Supported operators: ==, !=, <, <=, >, >=, ~= (compatible release),
// ^ (caret), wildcard suffixes on ==/!= and the match-all "*".
type Constraint struct {
	groups [][]specifier
	orig   string
}

type specifier struct {
	op       string
	version  Version
	wildcard bool
}

// ParseConstraint parses a constraint expression, consulting the process-wide
// memoization cache first.
func ParseConstraint(s string) (Constraint, error) {
	key := strings.TrimSpace(s)
	if cached, ok := constraintCache.Get(key); ok {
		return cached, nil
	}

	c, err := parseConstraint(key)
	if err != nil {
		return Constraint{}, err
	}

	constraintCache.Add(key, c)
	return c, nil
}

func parseConstraint(s string) (Constraint, error) {
	c := Constraint{orig: s}
	if s == "" || s == "*" {
		return c, nil
	}

	for _, groupExpr := range strings.Split(s, "||") {
		var group []specifier
		for _, specExpr := range strings.Split(groupExpr, ",") {
			specExpr = strings.TrimSpace(specExpr)
			if specExpr == "" {
				continue
			}
			spec, err := parseSpecifier(specExpr)
			if err != nil {
				return Constraint{}, err
			}
			group = append(group, spec)
		}
		if len(group) > 0 {
			c.groups = append(c.groups, group)
		}
	}

	return c, nil
}

func parseSpecifier(s string) (specifier, error) {
	op := "=="
	rest := s
	for _, candidate := range []string{">=", "<=", "==", "!=", "~=", ">", "<", "^", "~"} {
		if strings.HasPrefix(s, candidate) {
			op = candidate
			rest = strings.TrimSpace(s[len(candidate):])
			break
		}
	}
	// Poetry's tilde operator has compatible-release semantics.
	if op == "~" {
		op = "~="
	}

	spec := specifier{op: op}
	if (op == "==" || op == "!=") && strings.HasSuffix(rest, ".*") {
		spec.wildcard = true
		rest = strings.TrimSuffix(rest, ".*")
	}
	if rest == "*" {
		if op != "==" && op != "!=" {
			return specifier{}, zerr.With(ErrInvalidConstraint, "constraint", s)
		}
		spec.wildcard = true
		rest = "0"
		spec.version = Version{release: []int{}, stage: stageFinal, orig: "*"}
		return spec, nil
	}

	v, err := ParseVersion(rest)
	if err != nil {
		return specifier{}, zerr.With(zerr.Wrap(err, ErrInvalidConstraint.Error()), "constraint", s)
	}
	spec.version = v
	return spec, nil
}

// Matches reports whether the given version satisfies the constraint.
func (c Constraint) Matches(v Version) bool {
	if len(c.groups) == 0 {
		return true
	}
	for _, group := range c.groups {
		if matchesAll(group, v) {
			return true
		}
	}
	return false
}

// MatchesString parses the version and evaluates the constraint against it.
func (c Constraint) MatchesString(version string) (bool, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return false, err
	}
	return c.Matches(v), nil
}

// String returns the original constraint expression.
func (c Constraint) String() string {
	return c.orig
}

func matchesAll(group []specifier, v Version) bool {
	for _, spec := range group {
		if !spec.matches(v) {
			return false
		}
	}
	return true
}

func (s specifier) matches(v Version) bool {
	if s.wildcard {
		eq := hasReleasePrefix(v, s.version.release)
		if s.op == "!=" {
			return !eq
		}
		return eq
	}

	cmp := v.Compare(s.version)
	switch s.op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "~=":
		return cmp >= 0 && hasReleasePrefix(v, compatiblePrefix(s.version.release))
	case "^":
		return cmp >= 0 && v.Compare(caretUpperBound(s.version)) < 0
	default:
		return false
	}
}

// hasReleasePrefix reports whether v's release starts with the given components.
func hasReleasePrefix(v Version, prefix []int) bool {
	for i, p := range prefix {
		if v.component(i) != p {
			return false
		}
	}
	return true
}

// compatiblePrefix returns the release prefix a ~= specifier pins:
// everything except the final component.
func compatiblePrefix(release []int) []int {
	if len(release) <= 1 {
		return release
	}
	return release[:len(release)-1]
}

// caretUpperBound computes the exclusive upper bound for a caret specifier:
// the leftmost non-zero component is incremented and the rest zeroed, so
// ^1.2.3 < 2.0.0 and ^0.2.3 < 0.3.0.
func caretUpperBound(v Version) Version {
	release := v.Release()
	idx := 0
	for i, c := range release {
		idx = i
		if c != 0 {
			break
		}
	}
	upper := make([]int, len(release))
	copy(upper, release)
	upper[idx]++
	for i := idx + 1; i < len(upper); i++ {
		upper[i] = 0
	}
	return Version{release: upper, stage: stageDev, orig: "upper"}
}
