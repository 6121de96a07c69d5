// Package taskcache gates tool builds on the artifact store.
package taskcache

import (
	"context"
	"errors"
	"io"
	"time"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Span attribute keys.
const (
	AttrIndex    = "toolcache.index"
	AttrHit      = "toolcache.hit"
	AttrRequests = "toolcache.requests"
)

// BuildFunc produces the declared files of a plan. Build output goes to out.
type BuildFunc func(ctx context.Context, out io.Writer) ([]domain.OutputFile, error)

// Outcome is the result of ensuring one plan.
type Outcome struct {
	Plan     domain.TaskPlan
	Artifact *domain.Artifact
	// Hit reports whether the artifact was already stored.
	Hit bool
}

// Cache decides whether a plan must be built and records what a build produced.
type Cache struct {
	store  ports.ArtifactStore
	tracer ports.Tracer
	group  singleflight.Group
}

// New creates a Cache backed by store.
func New(store ports.ArtifactStore, tracer ports.Tracer) *Cache {
	return &Cache{store: store, tracer: tracer}
}

// Lookup returns the artifact stored under index, or nil on a miss.
func (c *Cache) Lookup(ctx context.Context, index string) (*domain.Artifact, error) {
	artifact, err := c.store.Get(ctx, index)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cache lookup failed"), "index", index)
	}
	return artifact, nil
}

// Store records files under index for ttl and returns the stored artifact.
func (c *Cache) Store(ctx context.Context, index string, files []domain.OutputFile, ttl time.Duration) (*domain.Artifact, error) {
	if err := c.store.Put(ctx, index, files, ttl); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cache store failed"), "index", index)
	}

	artifact, err := c.Lookup(ctx, index)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		err := zerr.Wrap(errors.Join(domain.ErrStoreUnavailable, errors.New("entry not readable after store")), "cache store failed")
		return nil, zerr.With(err, "index", index)
	}
	return artifact, nil
}

// Ref returns the store reference of index.
func (c *Cache) Ref(index string) string {
	return c.store.Ref(index)
}

// Fetch copies a stored file to dst.
func (c *Cache) Fetch(ctx context.Context, file domain.ArtifactFile, dst string) error {
	if err := c.store.Fetch(ctx, file, dst); err != nil {
		return zerr.With(zerr.Wrap(err, "cache fetch failed"), "file", file.Name)
	}
	return nil
}

// Ensure returns the artifact of plan, building and storing it on a miss.
// A hit never calls build. With force set the lookup is skipped.
// Concurrent calls for the same index and force share one execution, so a
// forced call never joins one that may answer from the store.
func (c *Cache) Ensure(ctx context.Context, plan domain.TaskPlan, force bool, build BuildFunc) (Outcome, error) {
	key := plan.Index
	if force {
		key += "\x00force"
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.ensure(ctx, plan, force, build)
	})
	if err != nil {
		return Outcome{Plan: plan}, err
	}
	return v.(Outcome), nil
}

func (c *Cache) ensure(ctx context.Context, plan domain.TaskPlan, force bool, build BuildFunc) (Outcome, error) {
	ctx, span := c.tracer.Start(ctx, plan.Description, ports.WithAttribute(AttrIndex, plan.Index))
	defer span.End()

	if !force {
		artifact, err := c.Lookup(ctx, plan.Index)
		if err != nil {
			span.RecordError(err)
			return Outcome{}, err
		}
		if artifact != nil {
			span.SetAttribute(AttrHit, true)
			return Outcome{Plan: plan, Artifact: artifact, Hit: true}, nil
		}
	}
	span.SetAttribute(AttrHit, false)

	files, err := build(ctx, span)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, zerr.With(err, "index", plan.Index)
	}

	artifact, err := c.Store(ctx, plan.Index, files, plan.Expiry)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, err
	}
	return Outcome{Plan: plan, Artifact: artifact}, nil
}
