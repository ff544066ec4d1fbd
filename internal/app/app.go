// Package app implements the application layer for lockstep.
package app

import (
	"context"
	"fmt"

	"go.trai.ch/lockstep/internal/adapters/config"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/lockstep/internal/engine/installer"
	"go.trai.ch/lockstep/internal/engine/planner"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App wires the manifest loader, planner and installer into the three
// operations the CLI exposes: plan, install and verify.
type App struct {
	settings     *config.Settings
	manifests    ports.ManifestLoader
	planner      *planner.Planner
	installer    *installer.Installer
	state        ports.StateStore
	digester     ports.Digester
	materializer ports.Materializer
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	settings *config.Settings,
	manifests ports.ManifestLoader,
	plannerEngine *planner.Planner,
	installerEngine *installer.Installer,
	state ports.StateStore,
	digester ports.Digester,
	materializer ports.Materializer,
	logger ports.Logger,
) *App {
	return &App{
		settings:     settings,
		manifests:    manifests,
		planner:      plannerEngine,
		installer:    installerEngine,
		state:        state,
		digester:     digester,
		materializer: materializer,
		logger:       logger,
	}
}

// Plan loads the manifest and resolves it without fetching anything.
func (a *App) Plan(ctx context.Context, targets []string) (*planner.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifest, err := a.manifests.Load(a.settings.Manifest)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load manifest")
	}

	plan, err := a.planner.Plan(manifest, targets)
	if err != nil {
		return nil, err
	}

	for _, name := range plan.Pruned {
		a.logger.Warn(fmt.Sprintf("excluded %s: not applicable to this environment", name))
	}
	return plan, nil
}

// Install plans and then executes the installation.
func (a *App) Install(ctx context.Context, targets []string, force bool) (*installer.Result, error) {
	plan, err := a.Plan(ctx, targets)
	if err != nil {
		return nil, err
	}

	return a.installer.Run(ctx, plan.Graph, installer.Options{
		Parallelism: a.settings.Parallelism,
		FailFast:    a.settings.FailFast,
		Force:       force,
	})
}

// Verify re-hashes every recorded install against its manifest digest.
// Packages are checked concurrently; the first mismatch or missing install
// cancels the rest.
func (a *App) Verify(ctx context.Context) (int, error) {
	states, err := a.state.All()
	if err != nil {
		return 0, zerr.Wrap(err, "failed to read install state")
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(a.settings.Parallelism)

	for _, st := range states {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return a.verifyOne(st)
		})
	}

	if err := group.Wait(); err != nil {
		return len(states), err
	}
	return len(states), nil
}

func (a *App) verifyOne(st domain.InstallState) error {
	if !a.materializer.Installed(st.Path) {
		missing := zerr.With(domain.ErrPackageNotFound, "package", st.Package)
		return zerr.With(missing, "path", st.Path)
	}

	actual, err := a.digester.DigestFile(st.Path)
	if err != nil {
		return zerr.With(err, "package", st.Package)
	}
	if actual.String() != st.Digest {
		mismatch := zerr.With(domain.ErrIntegrityMismatch, "package", st.Package)
		mismatch = zerr.With(mismatch, "expected", st.Digest)
		return zerr.With(mismatch, "actual", actual.String())
	}
	return nil
}
