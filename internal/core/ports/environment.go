package ports

import (
	"context"

	"go.trai.ch/toolcache/internal/core/domain"
)

// EnvironmentProvider reports the fingerprint of the build environment of a platform.
//
//go:generate mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type EnvironmentProvider interface {
	// Fingerprint returns the hex fingerprint of the environment used to build for p.
	// Equal environments must yield equal fingerprints.
	Fingerprint(ctx context.Context, p domain.Platform) (string, error)
}
