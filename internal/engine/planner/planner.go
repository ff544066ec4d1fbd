// Package planner turns a pinned manifest into a validated install plan.
package planner

import (
	"slices"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/zerr"
)

// Planner resolves a manifest against a target environment. All resolution
// failures surface here, before any artifact is fetched.
type Planner struct {
	env        domain.Environment
	includeDev bool
}

// New creates a Planner for the given environment.
func New(env domain.Environment, includeDev bool) *Planner {
	return &Planner{env: env, includeDev: includeDev}
}

// Plan is a validated installation plan: a closed acyclic graph plus the
// package names in installation order, dependencies first.
type Plan struct {
	Graph *domain.Graph

	// Order lists the packages to install, dependencies before dependents.
	Order []string

	// Pruned lists the packages excluded by category, marker or interpreter
	// filtering, in sorted order.
	Pruned []string
}

// Plan resolves the manifest. When targets is non-empty only the named
// packages and their transitive dependencies are planned; otherwise every
// package that survives filtering is.
func (p *Planner) Plan(manifest *domain.Manifest, targets []string) (*Plan, error) {
	if err := p.checkInterpreter(manifest); err != nil {
		return nil, err
	}

	included, pruned, err := p.filterPackages(manifest)
	if err != nil {
		return nil, err
	}

	if len(targets) > 0 {
		included, err = closure(included, targets)
		if err != nil {
			return nil, err
		}
	}

	if err := p.checkConstraints(included); err != nil {
		return nil, err
	}

	graph := domain.NewGraph()
	for _, name := range sortedKeys(included) {
		rec := included[name]
		if err := graph.AddPackage(&rec); err != nil {
			return nil, err
		}
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	return &Plan{
		Graph:  graph,
		Order:  graph.InstallOrder(),
		Pruned: pruned,
	}, nil
}

// checkInterpreter rejects manifests whose global interpreter range does not
// admit the target interpreter.
func (p *Planner) checkInterpreter(manifest *domain.Manifest) error {
	if manifest.PythonVersions == "" {
		return nil
	}
	constraint, err := domain.ParseConstraint(manifest.PythonVersions)
	if err != nil {
		return zerr.With(err, "python-versions", manifest.PythonVersions)
	}
	ok, err := constraint.MatchesString(p.env.PythonVersion)
	if err != nil {
		return err
	}
	if !ok {
		unsupported := zerr.With(domain.ErrUnsupportedInterpreter, "required", manifest.PythonVersions)
		return zerr.With(unsupported, "python", p.env.PythonVersion)
	}
	return nil
}

// filterPackages drops packages excluded for this environment and rewrites
// the survivors' dependency lists: edges whose marker excludes the
// environment, and edges into pruned packages, disappear with them.
func (p *Planner) filterPackages(manifest *domain.Manifest) (map[string]domain.PackageRecord, []string, error) {
	included := make(map[string]domain.PackageRecord, len(manifest.Packages))
	var pruned []string

	for _, name := range manifest.Names() {
		rec := manifest.Packages[name]
		keep, err := p.applies(&rec)
		if err != nil {
			return nil, nil, zerr.With(err, "package", name)
		}
		if !keep {
			pruned = append(pruned, name)
			continue
		}
		included[name] = rec
	}

	for name, rec := range included {
		deps := make([]domain.DependencyRequirement, 0, len(rec.Dependencies))
		for _, req := range rec.Dependencies {
			if req.Marker != "" {
				ok, err := domain.EvaluateMarker(req.Marker, p.env)
				if err != nil {
					return nil, nil, zerr.With(err, "package", name)
				}
				if !ok {
					continue
				}
			}
			if _, prunedDep := slices.BinarySearch(pruned, req.Name.String()); prunedDep {
				continue
			}
			deps = append(deps, req)
		}
		rec.Dependencies = deps
		included[name] = rec
	}

	return included, pruned, nil
}

// applies reports whether a package belongs in this environment at all.
func (p *Planner) applies(rec *domain.PackageRecord) (bool, error) {
	if rec.Category == domain.CategoryDev && !p.includeDev {
		return false, nil
	}
	if rec.Marker != "" {
		ok, err := domain.EvaluateMarker(rec.Marker, p.env)
		if err != nil || !ok {
			return false, err
		}
	}
	if rec.PythonVersions != "" && rec.PythonVersions != "*" {
		constraint, err := domain.ParseConstraint(rec.PythonVersions)
		if err != nil {
			return false, err
		}
		ok, err := constraint.MatchesString(p.env.PythonVersion)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// checkConstraints verifies every surviving edge against the pinned version
// of its dependency. The manifest is already resolved, so a violation means
// the manifest is internally inconsistent, not that resolution should retry.
func (p *Planner) checkConstraints(included map[string]domain.PackageRecord) error {
	for name, rec := range included {
		for _, req := range rec.Dependencies {
			dep, ok := included[req.Name.String()]
			if !ok {
				continue // left for graph validation to report
			}
			if req.Constraint == "" || req.Constraint == "*" {
				continue
			}
			constraint, err := domain.ParseConstraint(req.Constraint)
			if err != nil {
				return zerr.With(zerr.With(err, "package", name), "dependency", req.Name.String())
			}
			matches, err := constraint.MatchesString(dep.Version.String())
			if err != nil {
				return zerr.With(err, "dependency", req.Name.String())
			}
			if !matches {
				unresolvable := zerr.With(domain.ErrUnresolvableConstraint, "package", name)
				unresolvable = zerr.With(unresolvable, "dependency", req.Name.String())
				unresolvable = zerr.With(unresolvable, "constraint", req.Constraint)
				return zerr.With(unresolvable, "pinned", dep.Version.String())
			}
		}
	}
	return nil
}

// closure keeps only the targets and everything reachable from them.
func closure(included map[string]domain.PackageRecord, targets []string) (map[string]domain.PackageRecord, error) {
	kept := make(map[string]domain.PackageRecord, len(targets))
	queue := make([]string, 0, len(targets))

	for _, target := range targets {
		rec, ok := included[target]
		if !ok {
			return nil, zerr.With(domain.ErrPackageNotFound, "package", target)
		}
		if _, seen := kept[target]; !seen {
			kept[target] = rec
			queue = append(queue, target)
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, req := range kept[name].Dependencies {
			depName := req.Name.String()
			if _, seen := kept[depName]; seen {
				continue
			}
			if rec, ok := included[depName]; ok {
				kept[depName] = rec
				queue = append(queue, depName)
			}
		}
	}

	return kept, nil
}

func sortedKeys(m map[string]domain.PackageRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
