package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/toolcache/internal/adapters/config"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/toolcache/internal/adapters/environment" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/toolcache/internal/adapters/git"         //nolint:depguard // Wired in engine wiring
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.ConfigNodeID,
			git.NodeID,
			environment.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}

			history, err := graft.Dep[ports.History](ctx)
			if err != nil {
				return nil, err
			}

			envs, err := graft.Dep[ports.EnvironmentProvider](ctx)
			if err != nil {
				return nil, err
			}

			return New(history, envs, cfg.Helper, cfg.Plan), nil
		},
	})
}
