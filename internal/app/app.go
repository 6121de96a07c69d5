// Package app implements the application layer for toolcache.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/toolcache/internal/engine/taskcache"
	"go.trai.ch/toolcache/internal/ui/style"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Planner resolves requests into task plans.
type Planner interface {
	Plan(ctx context.Context, req domain.Request) (domain.TaskPlan, error)
}

// Builder ensures batches of requests through the cache.
type Builder interface {
	BuildAll(ctx context.Context, reqs []domain.Request, opts taskcache.BuildOptions) ([]taskcache.Outcome, error)
}

// Cache answers lookups against the artifact store.
type Cache interface {
	Lookup(ctx context.Context, index string) (*domain.Artifact, error)
	Ref(index string) string
}

// App represents the main application logic.
type App struct {
	config  *domain.Config
	planner Planner
	cache   Cache
	builder Builder
	logger  ports.Logger
	out     io.Writer
}

// New creates a new App instance.
func New(
	cfg *domain.Config,
	planner Planner,
	cache Cache,
	builder Builder,
	log ports.Logger,
) *App {
	return &App{
		config:  cfg,
		planner: planner,
		cache:   cache,
		builder: builder,
		logger:  log,
		out:     os.Stdout,
	}
}

// WithOutput sets the writer results are printed to.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// QueryOptions configures the read-only commands.
type QueryOptions struct {
	// Platform is "<os>/<arch>". Empty means domain.DefaultPlatform.
	Platform string
}

// BuildOptions configures the Build method.
type BuildOptions struct {
	Platform string
	Force    bool
	Jobs     int
}

// Index prints the cache index of every spec.
func (a *App) Index(ctx context.Context, specs []string, opts QueryOptions) error {
	plans, err := a.plans(ctx, specs, opts.Platform)
	if err != nil {
		return err
	}
	for _, plan := range plans {
		a.println(plan.Index)
	}
	return nil
}

// Describe prints the human readable label of every spec.
func (a *App) Describe(ctx context.Context, specs []string, opts QueryOptions) error {
	plans, err := a.plans(ctx, specs, opts.Platform)
	if err != nil {
		return err
	}
	for _, plan := range plans {
		a.println(plan.Description)
	}
	return nil
}

// Plan prints the task plan of every spec as a YAML document stream.
func (a *App) Plan(ctx context.Context, specs []string, opts QueryOptions) error {
	plans, err := a.plans(ctx, specs, opts.Platform)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	for i := range plans {
		if err := enc.Encode(&plans[i]); err != nil {
			return zerr.Wrap(err, "failed to encode plan")
		}
	}
	return enc.Close()
}

// Lookup prints whether every spec is stored, and where.
func (a *App) Lookup(ctx context.Context, specs []string, opts QueryOptions) error {
	plans, err := a.plans(ctx, specs, opts.Platform)
	if err != nil {
		return err
	}

	for _, plan := range plans {
		artifact, err := a.cache.Lookup(ctx, plan.Index)
		if err != nil {
			return err
		}
		line := []string{style.Status(artifact != nil), plan.Description, style.Index.Render(plan.Index)}
		if artifact != nil {
			line = append(line, style.Subtle.Render(a.cache.Ref(plan.Index)))
		}
		a.println(strings.Join(line, "  "))
	}
	return nil
}

// Build ensures every spec, building what the store does not hold yet.
func (a *App) Build(ctx context.Context, specs []string, opts BuildOptions) error {
	reqs, err := a.requests(specs, opts.Platform)
	if err != nil {
		return err
	}

	outcomes, err := a.builder.BuildAll(ctx, reqs, taskcache.BuildOptions{Force: opts.Force, Jobs: opts.Jobs})
	if err != nil {
		return err
	}

	for _, outcome := range outcomes {
		a.println(strings.Join([]string{style.Outcome(outcome.Hit), outcome.Plan.Description, style.Index.Render(outcome.Plan.Index)}, "  "))
		if outcome.Artifact == nil {
			continue
		}
		for _, f := range outcome.Artifact.Files {
			a.println("    " + f.Name + "  " + style.Subtle.Render(f.Location))
		}
	}
	return nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// All also removes the build work directories.
	All bool
}

// Clean removes the local artifact store and, optionally, the work directories.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	var errs error

	// Helper to remove a directory and log the action
	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if a.config.Store.URL != "" {
		a.logger.Warn("remote artifact store is not cleaned: " + a.config.Store.URL)
	} else {
		remove(a.config.Store.Path, "artifact store")
	}

	if options.All {
		remove(filepath.Join(a.config.Root, domain.DefaultWorkPath()), "work directories")
	}

	return errs
}

func (a *App) requests(specs []string, platform string) ([]domain.Request, error) {
	if len(specs) == 0 {
		return nil, domain.ErrNoSpecsGiven
	}

	p := domain.DefaultPlatform
	if platform != "" {
		var err error
		if p, err = domain.ParsePlatform(platform); err != nil {
			return nil, err
		}
	}

	reqs := make([]domain.Request, 0, len(specs))
	for _, spec := range specs {
		req, err := domain.ParseSpec(spec, p)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func (a *App) plans(ctx context.Context, specs []string, platform string) ([]domain.TaskPlan, error) {
	reqs, err := a.requests(specs, platform)
	if err != nil {
		return nil, err
	}

	plans := make([]domain.TaskPlan, 0, len(reqs))
	for _, req := range reqs {
		plan, err := a.planner.Plan(ctx, req)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (a *App) println(line string) {
	_, _ = fmt.Fprintln(a.out, line)
}
