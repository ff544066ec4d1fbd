package env

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockstep/internal/adapters/config" //nolint:depguard // Wired in adapter node
	"go.trai.ch/lockstep/internal/core/ports"
)

// NodeID is the unique identifier for the materializer Graft node.
const NodeID graft.ID = "adapter.materializer"

func init() {
	graft.Register(graft.Node[ports.Materializer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.Materializer, error) {
			settings, err := graft.Dep[*config.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewMaterializer(settings.EnvDir)
		},
	})
}
