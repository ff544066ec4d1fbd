package domain_test

import (
	"testing"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/zerr"
)

func pkg(name string, deps ...string) *domain.PackageRecord {
	reqs := make([]domain.DependencyRequirement, len(deps))
	for i, d := range deps {
		reqs[i] = domain.DependencyRequirement{Name: domain.NewInternedString(d), Constraint: "*"}
	}
	return &domain.PackageRecord{
		Name:         domain.NewInternedString(name),
		Version:      domain.NewInternedString("1.0.0"),
		Category:     domain.CategoryMain,
		Dependencies: reqs,
	}
}

func TestGraph_AddPackage(t *testing.T) {
	g := domain.NewGraph()

	if err := g.AddPackage(pkg("six")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := g.AddPackage(pkg("six"))
	if err == nil {
		t.Fatal("expected error when adding duplicate package, got nil")
	}

	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	meta := zErr.Metadata()
	if name, ok := meta["package"].(string); !ok || name != "six" {
		t.Errorf("expected metadata package=six, got %v", meta["package"])
	}
}

func TestGraph_Validate_MissingDependency(t *testing.T) {
	g := domain.NewGraph()
	if err := g.AddPackage(pkg("structlog", "six")); err != nil {
		t.Fatalf("failed to add package: %v", err)
	}

	err := g.Validate()
	if err == nil {
		t.Fatal("expected error for missing dependency, got nil")
	}

	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	if dep, ok := zErr.Metadata()["dependency"].(string); !ok || dep != "six" {
		t.Errorf("expected metadata dependency=six, got %v", zErr.Metadata()["dependency"])
	}
}

func TestGraph_Validate_Cycle(t *testing.T) {
	g := domain.NewGraph()
	if err := g.AddPackage(pkg("a", "b")); err != nil {
		t.Fatalf("failed to add a: %v", err)
	}
	if err := g.AddPackage(pkg("b", "a")); err != nil {
		t.Fatalf("failed to add b: %v", err)
	}

	err := g.Validate()
	if err == nil {
		t.Fatal("expected error for cycle, got nil")
	}

	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	if cycle, ok := zErr.Metadata()["cycle"].(string); !ok || cycle == "" {
		t.Errorf("expected metadata cycle to be non-empty string, got %v", zErr.Metadata()["cycle"])
	}
}

func TestGraph_Walk_LeavesFirst(t *testing.T) {
	// a depends on b, b depends on c. Install order: c, b, a.
	g := domain.NewGraph()
	for _, p := range []*domain.PackageRecord{pkg("a", "b"), pkg("b", "c"), pkg("c")} {
		if err := g.AddPackage(p); err != nil {
			t.Fatalf("failed to add %s: %v", p.Name, err)
		}
	}

	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	var order []string
	for p := range g.Walk() {
		order = append(order, p.Name.String())
	}

	want := []string{"c", "b", "a"}
	if len(order) != len(want) {
		t.Fatalf("expected %d packages in walk, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestGraph_Walk_DiamondIsDeterministic(t *testing.T) {
	build := func() []string {
		g := domain.NewGraph()
		for _, p := range []*domain.PackageRecord{
			pkg("app", "left", "right"),
			pkg("left", "base"),
			pkg("right", "base"),
			pkg("base"),
		} {
			if err := g.AddPackage(p); err != nil {
				t.Fatalf("failed to add %s: %v", p.Name, err)
			}
		}
		if err := g.Validate(); err != nil {
			t.Fatalf("unexpected validation error: %v", err)
		}
		return g.InstallOrder()
	}

	first := build()
	for i := 0; i < 10; i++ {
		if got := build(); !equalStrings(first, got) {
			t.Fatalf("install order not deterministic: %v vs %v", first, got)
		}
	}

	// base must precede left and right, which must precede app.
	pos := map[string]int{}
	for i, name := range first {
		pos[name] = i
	}
	if pos["base"] > pos["left"] || pos["base"] > pos["right"] || pos["left"] > pos["app"] || pos["right"] > pos["app"] {
		t.Errorf("dependencies do not precede dependents: %v", first)
	}
}

func TestGraph_Dependents(t *testing.T) {
	g := domain.NewGraph()
	for _, p := range []*domain.PackageRecord{pkg("a", "c"), pkg("b", "c"), pkg("c")} {
		if err := g.AddPackage(p); err != nil {
			t.Fatalf("failed to add %s: %v", p.Name, err)
		}
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	deps := g.Dependents(domain.NewInternedString("c"))
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependents of c, got %d", len(deps))
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
