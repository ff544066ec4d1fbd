// Package installer executes an install plan with bounded parallelism.
package installer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

// Status represents the installation status of a package.
type Status string

const (
	// StatusPending indicates the package is waiting for its dependencies.
	StatusPending Status = "Pending"
	// StatusFetching indicates the artifact is being downloaded.
	StatusFetching Status = "Fetching"
	// StatusVerifying indicates the artifact is being checked against its digest.
	StatusVerifying Status = "Verifying"
	// StatusInstalling indicates the verified artifact is being materialized.
	StatusInstalling Status = "Installing"
	// StatusInstalled indicates the package was installed in this run.
	StatusInstalled Status = "Installed"
	// StatusCached indicates the recorded install is still valid and was kept.
	StatusCached Status = "Cached"
	// StatusFailed indicates the package could not be installed.
	StatusFailed Status = "Failed"
	// StatusSkipped indicates a dependency failed, so the package never ran.
	StatusSkipped Status = "Skipped"
)

// Options control a single run.
type Options struct {
	// Parallelism bounds the number of packages in flight.
	Parallelism int
	// FailFast stops scheduling new packages after the first failure.
	// Packages already in flight finish either way.
	FailFast bool
	// Force reinstalls packages even when their recorded state is valid.
	Force bool
}

// Result summarizes a run.
type Result struct {
	// Statuses holds the final status of every package in the plan.
	Statuses map[string]Status

	Installed int
	Cached    int
	Failed    int
	Skipped   int
}

// Installer drives the per-package install flow: fetch into the artifact
// store, verify, materialize, record. Construction only captures the ports;
// each Run carries its own scheduling state.
type Installer struct {
	env          domain.Environment
	fetcher      ports.Fetcher
	artifacts    ports.ArtifactStore
	state        ports.StateStore
	materializer ports.Materializer
	logger       ports.Logger
	tracer       ports.Tracer
}

// New creates an Installer.
func New(
	env domain.Environment,
	fetcher ports.Fetcher,
	artifacts ports.ArtifactStore,
	state ports.StateStore,
	materializer ports.Materializer,
	logger ports.Logger,
	tracer ports.Tracer,
) *Installer {
	return &Installer{
		env:          env,
		fetcher:      fetcher,
		artifacts:    artifacts,
		state:        state,
		materializer: materializer,
		logger:       logger,
		tracer:       tracer,
	}
}

// Run installs every package in the graph, dependencies first. The graph
// must already be validated. A package is only started once all its
// dependencies finished successfully; when one fails, its transitive
// dependents end up Skipped.
func (i *Installer) Run(ctx context.Context, graph *domain.Graph, opts Options) (*Result, error) {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}

	i.tracer.EmitPlan(ctx, graph.InstallOrder())

	state := i.newRunState(ctx, graph, opts)

	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			break
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.finish(), state.errs
}

type result struct {
	pkg    domain.InternedString
	status Status
	err    error
}

type runState struct {
	installer *Installer
	graph     *domain.Graph
	opts      Options
	ctx       context.Context

	inDegree  map[domain.InternedString]int
	packages  map[domain.InternedString]domain.PackageRecord
	ready     []domain.InternedString
	active    int
	failed    bool
	resultsCh chan result
	errs      error

	mu       sync.RWMutex
	statuses map[domain.InternedString]Status
}

func (i *Installer) newRunState(ctx context.Context, graph *domain.Graph, opts Options) *runState {
	count := graph.PackageCount()
	state := &runState{
		installer: i,
		graph:     graph,
		opts:      opts,
		ctx:       ctx,
		inDegree:  make(map[domain.InternedString]int, count),
		packages:  make(map[domain.InternedString]domain.PackageRecord, count),
		resultsCh: make(chan result, opts.Parallelism),
		statuses:  make(map[domain.InternedString]Status, count),
	}

	// Walk yields install order, so the ready queue starts leaves first and
	// single-threaded runs are deterministic.
	for pkg := range graph.Walk() {
		state.packages[pkg.Name] = pkg
		state.inDegree[pkg.Name] = len(pkg.Dependencies)
		state.statuses[pkg.Name] = StatusPending
		if len(pkg.Dependencies) == 0 {
			state.ready = append(state.ready, pkg.Name)
		}
	}

	return state
}

func (state *runState) isDone() bool {
	return state.active == 0 && (len(state.ready) == 0 || state.stopScheduling())
}

func (state *runState) stopScheduling() bool {
	return state.ctx.Err() != nil || (state.failed && state.opts.FailFast)
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.opts.Parallelism && !state.stopScheduling() {
		name := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		go func(pkg domain.PackageRecord) {
			status, err := state.installPackage(state.ctx, pkg)
			state.resultsCh <- result{pkg: pkg.Name, status: status, err: err}
		}(state.packages[name])
	}
}

func (state *runState) handleResult(res result) {
	state.active--

	if res.err != nil {
		state.failed = true
		state.setStatus(res.pkg, StatusFailed)
		state.errs = errors.Join(state.errs, zerr.With(res.err, "package", res.pkg.String()))
		state.installer.logger.Error(res.err)
		return
	}

	state.setStatus(res.pkg, res.status)
	for _, dependent := range state.graph.Dependents(res.pkg) {
		state.inDegree[dependent]--
		if state.inDegree[dependent] == 0 {
			state.ready = append(state.ready, dependent)
		}
	}
}

// finish marks everything that never ran as Skipped and builds the Result.
func (state *runState) finish() *Result {
	state.mu.Lock()
	defer state.mu.Unlock()

	res := &Result{Statuses: make(map[string]Status, len(state.statuses))}
	for name, status := range state.statuses {
		if status == StatusPending || status == StatusFetching ||
			status == StatusVerifying || status == StatusInstalling {
			status = StatusSkipped
		}
		res.Statuses[name.String()] = status
		switch status {
		case StatusInstalled:
			res.Installed++
		case StatusCached:
			res.Cached++
		case StatusFailed:
			res.Failed++
		case StatusSkipped:
			res.Skipped++
		}
	}
	return res
}

func (state *runState) setStatus(name domain.InternedString, status Status) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.statuses[name] = status
}

// installPackage runs the full flow for one package and reports the terminal
// status. Verification happens inside the artifact store's Put; nothing is
// materialized unless the digest check passed.
func (state *runState) installPackage(ctx context.Context, pkg domain.PackageRecord) (Status, error) {
	i := state.installer
	name := pkg.Name.String()
	_, span := i.tracer.Start(ctx, name)
	defer span.End()
	span.SetAttribute("version", pkg.Version.String())

	artifact, err := pkg.SelectArtifact()
	if err != nil {
		span.RecordError(err)
		return StatusFailed, err
	}

	if !state.opts.Force && i.isCurrent(pkg, artifact) {
		span.Cached()
		return StatusCached, nil
	}

	artifactPath, err := state.ensureArtifact(ctx, pkg.Name, artifact, span)
	if err != nil {
		span.RecordError(err)
		return StatusFailed, err
	}

	state.setStatus(pkg.Name, StatusInstalling)
	_, _ = fmt.Fprintf(span, "installing %s %s\n", name, pkg.Version.String())
	installedPath, err := i.materializer.Materialize(ctx, &pkg, artifactPath)
	if err != nil {
		span.RecordError(err)
		return StatusFailed, err
	}

	if err := i.state.Put(domain.InstallState{
		Package:   name,
		Version:   pkg.Version.String(),
		Digest:    artifact.Digest.String(),
		EnvID:     i.env.Fingerprint(),
		Path:      installedPath,
		Timestamp: time.Now(),
	}); err != nil {
		span.RecordError(err)
		return StatusFailed, err
	}

	i.logger.Info(fmt.Sprintf("installed %s %s", name, pkg.Version.String()))
	return StatusInstalled, nil
}

// isCurrent reports whether the recorded install still matches the manifest
// and environment and is still physically present.
func (i *Installer) isCurrent(pkg domain.PackageRecord, artifact domain.ArtifactDescriptor) bool {
	st, err := i.state.Get(pkg.Name.String())
	if err != nil || st == nil {
		return false
	}
	return st.Version == pkg.Version.String() &&
		st.Digest == artifact.Digest.String() &&
		st.EnvID == i.env.Fingerprint() &&
		i.materializer.Installed(st.Path)
}

// ensureArtifact returns a verified local path for the artifact, fetching it
// only when the store does not already hold it.
func (state *runState) ensureArtifact(ctx context.Context, name domain.InternedString, artifact domain.ArtifactDescriptor, span ports.Span) (string, error) {
	i := state.installer
	if i.artifacts.Contains(artifact.Digest) {
		_, _ = fmt.Fprintf(span, "artifact cached %s\n", artifact.Digest.String())
		return i.artifacts.Path(artifact.Digest)
	}

	state.setStatus(name, StatusFetching)
	_, _ = fmt.Fprintf(span, "fetching %s\n", artifact.Filename)
	body, err := i.fetcher.Fetch(ctx, name.String(), artifact)
	if err != nil {
		return "", err
	}
	defer body.Close() //nolint:errcheck // Best effort close in defer

	state.setStatus(name, StatusVerifying)
	path, err := i.artifacts.Put(artifact.Digest, body)
	if err != nil {
		return "", err
	}
	return path, nil
}
