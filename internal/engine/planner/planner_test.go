package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/engine/planner"
	"go.trai.ch/zerr"
)

var linuxPy38 = domain.Environment{
	PythonVersion: "3.8.10",
	Platform:      "linux",
	Machine:       "x86_64",
}

type pkgOpt func(*domain.PackageRecord)

func dep(name, constraint string) pkgOpt {
	return func(p *domain.PackageRecord) {
		p.Dependencies = append(p.Dependencies, domain.DependencyRequirement{
			Name:       domain.NewInternedString(name),
			Constraint: constraint,
		})
	}
}

func markedDep(name, constraint, marker string) pkgOpt {
	return func(p *domain.PackageRecord) {
		p.Dependencies = append(p.Dependencies, domain.DependencyRequirement{
			Name:       domain.NewInternedString(name),
			Constraint: constraint,
			Marker:     marker,
		})
	}
}

func marker(expr string) pkgOpt {
	return func(p *domain.PackageRecord) { p.Marker = expr }
}

func pythons(constraint string) pkgOpt {
	return func(p *domain.PackageRecord) { p.PythonVersions = constraint }
}

func devCategory() pkgOpt {
	return func(p *domain.PackageRecord) { p.Category = domain.CategoryDev }
}

func pkg(name, version string, opts ...pkgOpt) domain.PackageRecord {
	p := domain.PackageRecord{
		Name:     domain.NewInternedString(name),
		Version:  domain.NewInternedString(version),
		Category: domain.CategoryMain,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func manifestOf(packages ...domain.PackageRecord) *domain.Manifest {
	m := &domain.Manifest{
		LockVersion: "2.0",
		Packages:    make(map[string]domain.PackageRecord, len(packages)),
	}
	for _, p := range packages {
		m.Packages[p.Name.String()] = p
	}
	return m
}

func TestPlan_TopologicalOrder(t *testing.T) {
	m := manifestOf(
		pkg("a", "1.0.0", dep("b", ">=1.0")),
		pkg("b", "1.2.0", dep("c", "*")),
		pkg("c", "0.5.0"),
	)

	plan, err := planner.New(linuxPy38, false).Plan(m, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, plan.Order)
}

func TestPlan_MissingDependency(t *testing.T) {
	m := manifestOf(pkg("a", "1.0.0", dep("ghost", "*")))

	_, err := planner.New(linuxPy38, false).Plan(m, nil)
	require.ErrorIs(t, err, domain.ErrMissingDependency)
}

func TestPlan_CycleRejected(t *testing.T) {
	m := manifestOf(
		pkg("a", "1.0.0", dep("b", "*")),
		pkg("b", "1.0.0", dep("a", "*")),
	)

	_, err := planner.New(linuxPy38, false).Plan(m, nil)
	require.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestPlan_ConstraintConflict(t *testing.T) {
	m := manifestOf(
		pkg("a", "1.0.0", dep("b", ">=2.0")),
		pkg("b", "1.2.0"),
	)

	_, err := planner.New(linuxPy38, false).Plan(m, nil)
	require.ErrorIs(t, err, domain.ErrUnresolvableConstraint)

	var zerrErr *zerr.Error
	require.ErrorAs(t, err, &zerrErr)
	meta := zerrErr.Metadata()
	assert.Equal(t, "a", meta["package"])
	assert.Equal(t, "b", meta["dependency"])
	assert.Equal(t, ">=2.0", meta["constraint"])
	assert.Equal(t, "1.2.0", meta["pinned"])
}

func TestPlan_MarkerPrunesPackageAndEdges(t *testing.T) {
	m := manifestOf(
		pkg("app", "1.0.0", dep("colorama", ">=0.4")),
		pkg("colorama", "0.4.4", marker(`sys_platform == "win32"`)),
	)

	plan, err := planner.New(linuxPy38, false).Plan(m, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, plan.Order)
	assert.Equal(t, []string{"colorama"}, plan.Pruned)
}

func TestPlan_EdgeMarkerDropsEdgeOnly(t *testing.T) {
	m := manifestOf(
		pkg("app", "1.0.0", markedDep("tool", "*", `sys_platform == "win32"`)),
		pkg("tool", "2.0.0"),
	)

	plan, err := planner.New(linuxPy38, false).Plan(m, nil)
	require.NoError(t, err)

	// The edge disappears but the package is still part of the manifest.
	assert.ElementsMatch(t, []string{"app", "tool"}, plan.Order)
	rec, ok := plan.Graph.Package(domain.NewInternedString("app"))
	require.True(t, ok)
	assert.Empty(t, rec.Dependencies)
}

func TestPlan_InterpreterPruning(t *testing.T) {
	m := manifestOf(
		pkg("app", "1.0.0"),
		pkg("backport", "1.0.0", pythons("<3.8")),
	)

	plan, err := planner.New(linuxPy38, false).Plan(m, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, plan.Order)
	assert.Equal(t, []string{"backport"}, plan.Pruned)
}

func TestPlan_UnsupportedInterpreter(t *testing.T) {
	m := manifestOf(pkg("app", "1.0.0"))
	m.PythonVersions = ">=3.10"

	_, err := planner.New(linuxPy38, false).Plan(m, nil)
	require.ErrorIs(t, err, domain.ErrUnsupportedInterpreter)
}

func TestPlan_DevFiltering(t *testing.T) {
	m := manifestOf(
		pkg("app", "1.0.0"),
		pkg("pytest", "6.2.2", devCategory()),
	)

	plan, err := planner.New(linuxPy38, false).Plan(m, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, plan.Order)

	plan, err = planner.New(linuxPy38, true).Plan(m, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app", "pytest"}, plan.Order)
}

func TestPlan_Targets(t *testing.T) {
	m := manifestOf(
		pkg("a", "1.0.0", dep("b", "*")),
		pkg("b", "1.0.0"),
		pkg("unrelated", "1.0.0"),
	)

	plan, err := planner.New(linuxPy38, false).Plan(m, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, plan.Order)
}

func TestPlan_UnknownTarget(t *testing.T) {
	m := manifestOf(pkg("a", "1.0.0"))

	_, err := planner.New(linuxPy38, false).Plan(m, []string{"ghost"})
	require.ErrorIs(t, err, domain.ErrPackageNotFound)
}
