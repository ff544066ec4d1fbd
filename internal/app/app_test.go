package app_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/adapters/config"
	"go.trai.ch/lockstep/internal/adapters/telemetry"
	"go.trai.ch/lockstep/internal/app"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports/mocks"
	"go.trai.ch/lockstep/internal/engine/installer"
	"go.trai.ch/lockstep/internal/engine/planner"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	manifests    *mocks.MockManifestLoader
	fetcher      *mocks.MockFetcher
	artifacts    *mocks.MockArtifactStore
	state        *mocks.MockStateStore
	materializer *mocks.MockMaterializer
	digester     *mocks.MockDigester
	logger       *mocks.MockLogger
	app          *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	settings := &config.Settings{
		Manifest:    "lockstep.lock",
		Python:      "3.8.10",
		Platform:    "linux",
		Machine:     "x86_64",
		Parallelism: 2,
	}

	f := &fixture{
		manifests:    mocks.NewMockManifestLoader(ctrl),
		fetcher:      mocks.NewMockFetcher(ctrl),
		artifacts:    mocks.NewMockArtifactStore(ctrl),
		state:        mocks.NewMockStateStore(ctrl),
		materializer: mocks.NewMockMaterializer(ctrl),
		digester:     mocks.NewMockDigester(ctrl),
		logger:       mocks.NewMockLogger(ctrl),
	}
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.logger.EXPECT().Error(gomock.Any()).AnyTimes()

	env := settings.Environment()
	installerEngine := installer.New(
		env, f.fetcher, f.artifacts, f.state, f.materializer,
		f.logger, telemetry.NewNoOpTracer(),
	)
	f.app = app.New(
		settings, f.manifests, planner.New(env, settings.IncludeDev),
		installerEngine, f.state, f.digester, f.materializer, f.logger,
	)
	return f
}

func pinned(name, version string, deps ...string) domain.PackageRecord {
	p := domain.PackageRecord{
		Name:     domain.NewInternedString(name),
		Version:  domain.NewInternedString(version),
		Category: domain.CategoryMain,
		Artifacts: []domain.ArtifactDescriptor{{
			Filename: name + "-" + version + ".whl",
			Kind:     domain.KindWheel,
			Digest:   domain.Digest{Algorithm: "sha256", Hex: "hash-" + name},
		}},
	}
	for _, dep := range deps {
		p.Dependencies = append(p.Dependencies, domain.DependencyRequirement{
			Name: domain.NewInternedString(dep),
		})
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

func TestApp_Plan(t *testing.T) {
	f := newFixture(t)
	f.manifests.EXPECT().Load("lockstep.lock").Return(manifestOf(
		pinned("app", "1.0.0", "lib"),
		pinned("lib", "2.0.0"),
	), nil)

	plan, err := f.app.Plan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib", "app"}, plan.Order)
}

func TestApp_Plan_WarnsOnPruned(t *testing.T) {
	f := newFixture(t)
	dev := pinned("pytest", "6.2.2")
	dev.Category = domain.CategoryDev
	f.manifests.EXPECT().Load("lockstep.lock").Return(manifestOf(
		pinned("app", "1.0.0"),
		dev,
	), nil)
	f.logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		assert.Contains(t, msg, "pytest")
	})

	plan, err := f.app.Plan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, plan.Order)
}

func TestApp_Install(t *testing.T) {
	f := newFixture(t)
	f.manifests.EXPECT().Load("lockstep.lock").Return(manifestOf(
		pinned("app", "1.0.0", "lib"),
		pinned("lib", "2.0.0"),
	), nil)

	for _, name := range []string{"app", "lib"} {
		f.state.EXPECT().Get(name).Return(nil, nil)
		f.artifacts.EXPECT().Contains(gomock.Any()).Return(false)
		f.fetcher.EXPECT().Fetch(gomock.Any(), name, gomock.Any()).
			Return(io.NopCloser(strings.NewReader("bytes")), nil)
		f.artifacts.EXPECT().Put(gomock.Any(), gomock.Any()).Return("/cache/"+name, nil)
		f.materializer.EXPECT().Materialize(gomock.Any(), gomock.Any(), "/cache/"+name).
			Return("/env/lib/"+name, nil)
		f.state.EXPECT().Put(gomock.Any()).Return(nil)
	}

	res, err := f.app.Install(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Installed)
}

func TestApp_Install_PlanFailureFetchesNothing(t *testing.T) {
	f := newFixture(t)
	f.manifests.EXPECT().Load("lockstep.lock").Return(manifestOf(
		pinned("a", "1.0.0", "b"),
		pinned("b", "1.0.0", "a"),
	), nil)
	// No fetcher expectations: a cyclic manifest must fail before any fetch.

	_, err := f.app.Install(context.Background(), nil, false)
	require.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestApp_Verify(t *testing.T) {
	f := newFixture(t)
	states := []domain.InstallState{
		{Package: "app", Path: "/env/lib/app", Digest: "sha256:aa"},
		{Package: "lib", Path: "/env/lib/lib", Digest: "sha256:bb"},
	}
	f.state.EXPECT().All().Return(states, nil)
	f.materializer.EXPECT().Installed("/env/lib/app").Return(true)
	f.materializer.EXPECT().Installed("/env/lib/lib").Return(true)
	f.digester.EXPECT().DigestFile("/env/lib/app").
		Return(domain.Digest{Algorithm: "sha256", Hex: "aa"}, nil)
	f.digester.EXPECT().DigestFile("/env/lib/lib").
		Return(domain.Digest{Algorithm: "sha256", Hex: "bb"}, nil)

	count, err := f.app.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestApp_Verify_Mismatch(t *testing.T) {
	f := newFixture(t)
	f.state.EXPECT().All().Return([]domain.InstallState{
		{Package: "app", Path: "/env/lib/app", Digest: "sha256:aa"},
	}, nil)
	f.materializer.EXPECT().Installed("/env/lib/app").Return(true)
	f.digester.EXPECT().DigestFile("/env/lib/app").
		Return(domain.Digest{Algorithm: "sha256", Hex: "ee"}, nil)

	_, err := f.app.Verify(context.Background())
	require.ErrorIs(t, err, domain.ErrIntegrityMismatch)
}

func TestApp_Verify_MissingInstall(t *testing.T) {
	f := newFixture(t)
	f.state.EXPECT().All().Return([]domain.InstallState{
		{Package: "app", Path: "/env/lib/app", Digest: "sha256:aa"},
	}, nil)
	f.materializer.EXPECT().Installed("/env/lib/app").Return(false)

	_, err := f.app.Verify(context.Background())
	require.ErrorIs(t, err, domain.ErrPackageNotFound)
}
