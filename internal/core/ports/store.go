package ports

import (
	"context"
	"time"

	"go.trai.ch/toolcache/internal/core/domain"
)

// ArtifactStore defines the interface for storing and retrieving build artifacts by cache index.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ArtifactStore interface {
	// Get retrieves the artifact stored under index.
	// Returns nil, nil if nothing is stored or the entry has expired.
	Get(ctx context.Context, index string) (*domain.Artifact, error)

	// Put stores the files under index for at least ttl.
	// Storing an index that is already present overwrites it.
	Put(ctx context.Context, index string, files []domain.OutputFile, ttl time.Duration) error

	// Ref returns a stable, human readable location for index.
	Ref(index string) string

	// Fetch copies the contents of a stored file to dst.
	// Contents that do not match the file's digest fail with domain.ErrStoreCorrupt.
	Fetch(ctx context.Context, file domain.ArtifactFile, dst string) error
}
