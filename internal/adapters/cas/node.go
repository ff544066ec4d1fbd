package cas

import (
	"context"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockstep/internal/adapters/config" //nolint:depguard // Wired in adapter node
	"go.trai.ch/lockstep/internal/adapters/fs"     //nolint:depguard // Wired in adapter node
	"go.trai.ch/lockstep/internal/core/ports"
)

// NodeID is the unique identifier for the artifact store Graft node.
const NodeID graft.ID = "adapter.artifact_store"

func init() {
	graft.Register(graft.Node[ports.ArtifactStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, fs.DigesterNodeID},
		Run: func(ctx context.Context) (ports.ArtifactStore, error) {
			settings, err := graft.Dep[*config.Settings](ctx)
			if err != nil {
				return nil, err
			}
			digester, err := graft.Dep[ports.Digester](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(filepath.Join(settings.CacheDir, "artifacts"), digester)
		},
	})
}
