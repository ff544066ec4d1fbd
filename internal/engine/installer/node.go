package installer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockstep/internal/adapters/cas"       //nolint:depguard // Wired in engine node
	"go.trai.ch/lockstep/internal/adapters/config"    //nolint:depguard // Wired in engine node
	"go.trai.ch/lockstep/internal/adapters/env"       //nolint:depguard // Wired in engine node
	"go.trai.ch/lockstep/internal/adapters/fetch"     //nolint:depguard // Wired in engine node
	"go.trai.ch/lockstep/internal/adapters/logger"    //nolint:depguard // Wired in engine node
	"go.trai.ch/lockstep/internal/adapters/state"     //nolint:depguard // Wired in engine node
	"go.trai.ch/lockstep/internal/adapters/telemetry" //nolint:depguard // Wired in engine node
	"go.trai.ch/lockstep/internal/core/ports"
)

// NodeID is the unique identifier for the installer Graft node.
const NodeID graft.ID = "engine.installer"

func init() {
	graft.Register(graft.Node[*Installer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fetch.NodeID,
			cas.NodeID,
			state.NodeID,
			env.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Installer, error) {
			settings, err := graft.Dep[*config.Settings](ctx)
			if err != nil {
				return nil, err
			}
			fetcher, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}
			artifacts, err := graft.Dep[ports.ArtifactStore](ctx)
			if err != nil {
				return nil, err
			}
			stateStore, err := graft.Dep[ports.StateStore](ctx)
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
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return New(settings.Environment(), fetcher, artifacts, stateStore, materializer, log, tracer), nil
		},
	})
}
