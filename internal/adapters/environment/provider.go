// Package environment derives build environment fingerprints from the configuration.
package environment

import (
	"context"
	"maps"
	"sync"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/zerr"
)

// Provider implements ports.EnvironmentProvider from the configured environment specs.
type Provider struct {
	specs map[domain.Platform]domain.EnvironmentSpec
	memo  sync.Map
}

// NewProvider creates a Provider for the given environment specs.
func NewProvider(specs map[domain.Platform]domain.EnvironmentSpec) *Provider {
	return &Provider{specs: maps.Clone(specs)}
}

// Fingerprint returns the fingerprint of the environment used to build for p.
func (p *Provider) Fingerprint(ctx context.Context, platform domain.Platform) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if cached, ok := p.memo.Load(platform); ok {
		return cached.(string), nil
	}

	spec, ok := p.specs[platform]
	if !ok {
		return "", zerr.With(zerr.Wrap(domain.ErrUnknownEnvironment, "cannot fingerprint environment"),
			"platform", platform.String())
	}

	fingerprint := domain.GenerateEnvFingerprint(platform, spec)
	actual, _ := p.memo.LoadOrStore(platform, fingerprint)
	return actual.(string), nil
}
