package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/toolcache/internal/adapters/config" //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/adapters/logger" //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/toolcache/internal/engine/resolver"
	"go.trai.ch/toolcache/internal/engine/taskcache"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.ConfigNodeID,
			logger.NodeID,
			resolver.NodeID,
			taskcache.NodeID,
			taskcache.BuilderNodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			planner, err := graft.Dep[*resolver.Resolver](ctx)
			if err != nil {
				return nil, err
			}

			cache, err := graft.Dep[*taskcache.Cache](ctx)
			if err != nil {
				return nil, err
			}

			builder, err := graft.Dep[*taskcache.Builder](ctx)
			if err != nil {
				return nil, err
			}

			return New(cfg, planner, cache, builder, log), nil
		},
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}
