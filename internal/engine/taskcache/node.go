package taskcache

import (
	"context"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/toolcache/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/toolcache/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/toolcache/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/toolcache/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/toolcache/internal/adapters/shell"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/toolcache/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/toolcache/internal/engine/resolver"
)

const (
	// NodeID is the unique identifier for the cache Graft node.
	NodeID graft.ID = "engine.taskcache"
	// BuilderNodeID is the unique identifier for the builder Graft node.
	BuilderNodeID graft.ID = "engine.builder"
)

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cas.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Cache, error) {
			store, err := graft.Dep[ports.ArtifactStore](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			return New(store, tracer), nil
		},
	})

	graft.Register(graft.Node[*Builder]{
		ID:        BuilderNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			NodeID,
			config.ConfigNodeID,
			resolver.NodeID,
			shell.NodeID,
			fs.VerifierNodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Builder, error) {
			cache, err := graft.Dep[*Cache](ctx)
			if err != nil {
				return nil, err
			}

			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}

			planner, err := graft.Dep[*resolver.Resolver](ctx)
			if err != nil {
				return nil, err
			}

			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			verifier, err := graft.Dep[ports.Verifier](ctx)
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

			workRoot := filepath.Join(cfg.Root, domain.DefaultWorkPath())
			return NewBuilder(planner, cache, executor, verifier, log, tracer, workRoot, cfg.Root), nil
		},
	})
}
