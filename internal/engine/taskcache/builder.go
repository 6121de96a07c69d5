package taskcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	// ArtifactsDirName is the directory inside a work directory that recipes write their outputs to.
	ArtifactsDirName = "artifacts"
	// DependenciesDirName is the directory inside a work directory that dependency files are fetched to.
	DependenciesDirName = "deps"
)

// Planner resolves a request into a task plan.
type Planner interface {
	Plan(ctx context.Context, req domain.Request) (domain.TaskPlan, error)
}

// BuildOptions controls a batch build.
type BuildOptions struct {
	// Force rebuilds the requested tools even when they are stored. Dependencies are still reused.
	Force bool
	// Jobs bounds the number of concurrent builds. Zero means one per CPU.
	Jobs int
}

// Builder builds requested tools, and their dependencies, through the cache.
type Builder struct {
	planner  Planner
	cache    *Cache
	executor ports.Executor
	verifier ports.Verifier
	logger   ports.Logger
	tracer   ports.Tracer
	workRoot string
	source   string
}

// NewBuilder creates a Builder. Recipes run below workRoot and clone sources from source.
func NewBuilder(
	planner Planner,
	cache *Cache,
	executor ports.Executor,
	verifier ports.Verifier,
	logger ports.Logger,
	tracer ports.Tracer,
	workRoot, source string,
) *Builder {
	return &Builder{
		planner:  planner,
		cache:    cache,
		executor: executor,
		verifier: verifier,
		logger:   logger,
		tracer:   tracer,
		workRoot: workRoot,
		source:   source,
	}
}

// BuildAll plans every request, then ensures them concurrently.
// Outcomes are returned in request order.
func (b *Builder) BuildAll(ctx context.Context, reqs []domain.Request, opts BuildOptions) ([]Outcome, error) {
	ctx, span := b.tracer.Start(ctx, "build", ports.WithAttribute(AttrRequests, len(reqs)))
	defer span.End()

	plans := make([]domain.TaskPlan, len(reqs))
	indices := make([]string, len(reqs))
	for i, req := range reqs {
		plan, err := b.planner.Plan(ctx, req)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		plans[i] = plan
		indices[i] = plan.Index
	}
	b.tracer.EmitPlan(ctx, indices)

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	outcomes := make([]Outcome, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, plan := range plans {
		g.Go(func() error {
			outcome, err := b.ensure(gctx, plan, opts.Force)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return outcomes, nil
}

// Build plans and ensures a single request.
func (b *Builder) Build(ctx context.Context, req domain.Request, force bool) (Outcome, error) {
	plan, err := b.planner.Plan(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	return b.ensure(ctx, plan, force)
}

func (b *Builder) ensure(ctx context.Context, plan domain.TaskPlan, force bool) (Outcome, error) {
	workDir := b.WorkDir(plan.Index)
	outcome, err := b.cache.Ensure(ctx, plan, force, func(ctx context.Context, out io.Writer) ([]domain.OutputFile, error) {
		deps, err := b.dependencies(ctx, plan)
		if err != nil {
			return nil, err
		}
		return b.run(ctx, &plan, workDir, deps, out)
	})
	if err != nil {
		return outcome, err
	}

	if !outcome.Hit {
		if err := os.RemoveAll(workDir); err != nil {
			b.logger.Warn(fmt.Sprintf("failed to remove work directory %s: %v", workDir, err))
		}
	}
	return outcome, nil
}

// dependencies ensures every dependency of plan. It only runs when plan itself is built.
func (b *Builder) dependencies(ctx context.Context, plan domain.TaskPlan) ([]Outcome, error) {
	deps := make([]Outcome, 0, len(plan.DependsOn))
	for _, dep := range plan.DependsOn {
		outcome, err := b.Build(ctx, dep, false)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to ensure dependency"), "dependency", dep.String())
		}
		deps = append(deps, outcome)
	}
	return deps, nil
}

func (b *Builder) run(ctx context.Context, plan *domain.TaskPlan, workDir string, deps []Outcome, out io.Writer) ([]domain.OutputFile, error) {
	b.logger.Info("building " + plan.Description)

	if err := os.RemoveAll(workDir); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to clean work directory"), "path", workDir)
	}
	artifacts := filepath.Join(workDir, ArtifactsDirName)
	if err := os.MkdirAll(artifacts, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create work directory"), "path", workDir)
	}

	env, err := b.fetchDependencies(ctx, workDir, deps)
	if err != nil {
		return nil, err
	}
	env = append(env,
		"ARTIFACTS="+artifacts,
		"SOURCE_REPO="+b.source,
	)
	if err := b.executor.Execute(ctx, plan, workDir, env, out, out); err != nil {
		return nil, err
	}

	return b.verifier.VerifyOutputs(artifacts, plan.Artifacts)
}

// fetchDependencies copies the first file of every dependency into the work
// directory under its declared name and exports its path as <TOOL>_ARTIFACT.
func (b *Builder) fetchDependencies(ctx context.Context, workDir string, deps []Outcome) ([]string, error) {
	env := make([]string, 0, len(deps))
	for _, dep := range deps {
		if dep.Artifact == nil || len(dep.Artifact.Files) == 0 {
			continue
		}
		file := dep.Artifact.Files[0]
		dst := filepath.Join(workDir, DependenciesDirName, filepath.Base(file.Name))
		if err := b.cache.Fetch(ctx, file, dst); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to fetch dependency"), "dependency", dep.Plan.Index)
		}
		env = append(env, ArtifactEnvVar(dep.Plan.Descriptor.Tool)+"="+dst)
	}
	return env, nil
}

// WorkDir returns the directory the recipe of index runs in.
func (b *Builder) WorkDir(index string) string {
	hash := sha256.Sum256([]byte(index))
	return filepath.Join(b.workRoot, hex.EncodeToString(hash[:8]))
}

// ArtifactEnvVar names the variable a dependency's artifact is exported as.
func ArtifactEnvVar(tool domain.Tool) string {
	return strings.ToUpper(tool.String()) + "_ARTIFACT"
}
