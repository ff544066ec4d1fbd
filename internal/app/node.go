package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockstep/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/lockstep/internal/adapters/env"       //nolint:depguard // Wired in app layer
	"go.trai.ch/lockstep/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/lockstep/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/lockstep/internal/adapters/manifest"  //nolint:depguard // Wired in app layer
	"go.trai.ch/lockstep/internal/adapters/state"     //nolint:depguard // Wired in app layer
	"go.trai.ch/lockstep/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/lockstep/internal/engine/installer"
	"go.trai.ch/lockstep/internal/engine/planner"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			manifest.NodeID,
			planner.NodeID,
			installer.NodeID,
			state.NodeID,
			fs.DigesterNodeID,
			env.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			config.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	settings, err := graft.Dep[*config.Settings](ctx)
	if err != nil {
		return nil, err
	}
	manifests, err := graft.Dep[ports.ManifestLoader](ctx)
	if err != nil {
		return nil, err
	}
	plannerEngine, err := graft.Dep[*planner.Planner](ctx)
	if err != nil {
		return nil, err
	}
	installerEngine, err := graft.Dep[*installer.Installer](ctx)
	if err != nil {
		return nil, err
	}
	stateStore, err := graft.Dep[ports.StateStore](ctx)
	if err != nil {
		return nil, err
	}
	digester, err := graft.Dep[ports.Digester](ctx)
	if err != nil {
		return nil, err
	}
	materializer, err := graft.Dep[ports.Materializer](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(settings, manifests, plannerEngine, installerEngine, stateStore, digester, materializer, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	application, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}
	settings, err := graft.Dep[*config.Settings](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:      application,
		Settings: settings,
		Logger:   log,
		Tracer:   tracer,
	}, nil
}
