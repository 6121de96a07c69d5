package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/toolcache/internal/adapters/config"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
)

// NodeID is the unique identifier for the artifact store Graft node.
const NodeID graft.ID = "adapter.cas"

func init() {
	graft.Register(graft.Node[ports.ArtifactStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.ConfigNodeID},
		Run: func(ctx context.Context) (ports.ArtifactStore, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return Open(cfg.Store)
		},
	})
}

// Open returns the remote store when a URL is configured and the filesystem store otherwise.
func Open(cfg domain.StoreConfig) (ports.ArtifactStore, error) {
	if cfg.URL != "" {
		return NewRemoteStore(cfg.URL, cfg.Retries)
	}
	return NewStore(cfg.Path), nil
}
