package state

import (
	"context"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockstep/internal/adapters/config" //nolint:depguard // Wired in adapter node
	"go.trai.ch/lockstep/internal/core/ports"
)

// NodeID is the unique identifier for the install-state store Graft node.
const NodeID graft.ID = "adapter.state_store"

func init() {
	graft.Register(graft.Node[ports.StateStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.StateStore, error) {
			settings, err := graft.Dep[*config.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(filepath.Join(settings.EnvDir, "state.json"))
		},
	})
}
