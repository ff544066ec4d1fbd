package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph represents the dependency graph of a pruned manifest. Edges point
// from a package to the packages it requires; installation order is
// leaves first.
type Graph struct {
	packages   map[InternedString]PackageRecord
	installOrd []InternedString
	dependents map[InternedString][]InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		packages: make(map[InternedString]PackageRecord),
	}
}

// AddPackage adds a package record to the graph.
// It returns an error if a record with the same name already exists.
func (g *Graph) AddPackage(p *PackageRecord) error {
	if _, exists := g.packages[p.Name]; exists {
		return zerr.With(ErrPackageAlreadyExists, "package", p.Name.String())
	}
	g.packages[p.Name] = *p
	return nil
}

// Package returns the record for the given name.
func (g *Graph) Package(name InternedString) (PackageRecord, bool) {
	p, ok := g.packages[name]
	return p, ok
}

// PackageCount returns the number of packages in the graph.
func (g *Graph) PackageCount() int {
	return len(g.packages)
}

// Validate checks that the graph is closed and acyclic using a depth-first
// topological sort, and populates the installation order and reverse edges.
// Disconnected components are visited in sorted name order so the resulting
// order is deterministic.
func (g *Graph) Validate() error {
	g.installOrd = make([]InternedString, 0, len(g.packages))
	g.dependents = make(map[InternedString][]InternedString, len(g.packages))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		pkg, exists := g.packages[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u.String())
		}

		for _, req := range pkg.Dependencies {
			g.dependents[req.Name] = append(g.dependents[req.Name], u)
			if visited[req.Name] == 1 {
				return g.buildCycleError(path, req.Name)
			}
			if visited[req.Name] == 0 {
				if err := visit(req.Name); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.installOrd = append(g.installOrd, u)
		return nil
	}

	names := make([]InternedString, 0, len(g.packages))
	for name := range g.packages {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b InternedString) int {
		return strings.Compare(a.String(), b.String())
	})

	for _, name := range names {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator that yields packages in installation order,
// dependencies before dependents.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[PackageRecord] {
	return func(yield func(PackageRecord) bool) {
		for _, name := range g.installOrd {
			if !yield(g.packages[name]) {
				return
			}
		}
	}
}

// Dependents returns the packages that directly require the given package.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Dependents(name InternedString) []InternedString {
	return g.dependents[name]
}

// InstallOrder returns the package names in installation order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) InstallOrder() []string {
	out := make([]string, len(g.installOrd))
	for i, name := range g.installOrd {
		out[i] = name.String()
	}
	return out
}
