// Package resolver turns user build requests into fully resolved task descriptors.
package resolver

import (
	"context"
	"strings"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver fills in the helper source hash and the environment fingerprint of a request.
type Resolver struct {
	history ports.History
	envs    ports.EnvironmentProvider
	helper  domain.HelperConfig
	opts    domain.PlanOptions
}

// New creates a Resolver.
func New(
	history ports.History,
	envs ports.EnvironmentProvider,
	helper domain.HelperConfig,
	opts domain.PlanOptions,
) *Resolver {
	return &Resolver{
		history: history,
		envs:    envs,
		helper:  helper,
		opts:    opts,
	}
}

// Resolve returns the descriptor req stands for. The result is validated.
func (r *Resolver) Resolve(ctx context.Context, req domain.Request) (domain.Descriptor, error) {
	d := domain.Descriptor{
		Tool:     req.Tool,
		Platform: req.Platform,
		Version:  req.Version,
		Variant:  req.Variant,
	}

	if req.Tool == domain.ToolHelper {
		if err := r.resolveHelper(ctx, &d); err != nil {
			return domain.Descriptor{}, zerr.With(err, "request", req.String())
		}
	}

	if domain.Supports(d.Tool, d.Platform) && !domain.Prebuilt(d.Tool, d.Platform) {
		fingerprint, err := r.envs.Fingerprint(ctx, d.Platform)
		if err != nil {
			return domain.Descriptor{}, zerr.With(err, "request", req.String())
		}
		d.EnvFingerprint = fingerprint
	}

	if err := d.Validate(); err != nil {
		return domain.Descriptor{}, zerr.With(err, "request", req.String())
	}
	return d, nil
}

// Plan resolves req and derives its task plan.
func (r *Resolver) Plan(ctx context.Context, req domain.Request) (domain.TaskPlan, error) {
	d, err := r.Resolve(ctx, req)
	if err != nil {
		return domain.TaskPlan{}, err
	}
	return domain.PlanTask(d, r.opts)
}

func (r *Resolver) resolveHelper(ctx context.Context, d *domain.Descriptor) error {
	if d.Variant.Kind != domain.VariantOld {
		hash, err := r.history.TreeHash(ctx, "HEAD", r.helper.Path)
		if err != nil {
			return err
		}
		// The recipe builds HEAD, so an explicit hash must name HEAD's sources.
		if d.Version != "" && !strings.EqualFold(d.Version, hash) {
			err := zerr.With(zerr.Wrap(domain.ErrUnresolvedReference, "helper hash does not match the HEAD sources"), "version", d.Version)
			return zerr.With(err, "head_tree", hash)
		}
		d.Version = hash
		return nil
	}

	if d.Version != "" {
		return zerr.With(zerr.Wrap(domain.ErrInvalidSpec, "the old helper variant takes no version"), "version", d.Version)
	}

	head := d.Variant.Revision
	if head == "" {
		if r.helper.Version == "" {
			return zerr.Wrap(domain.ErrInvalidConfig, "helper.version must be set to resolve the old helper")
		}
		rev, err := r.history.IntroducingRevision(ctx, r.helper.Marker())
		if err != nil {
			return err
		}
		head = rev
	}

	hash, err := r.history.TreeHash(ctx, head, r.helper.Path)
	if err != nil {
		return err
	}
	d.Version = hash
	d.Checkout = head
	return nil
}
