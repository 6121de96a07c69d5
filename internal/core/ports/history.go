package ports

import "context"

// History answers questions about the version control history of the helper sources.
//
//go:generate mockgen -source=history.go -destination=mocks/mock_history.go -package=mocks
type History interface {
	// IntroducingRevision returns the revision that introduced marker into the sources.
	IntroducingRevision(ctx context.Context, marker string) (string, error)

	// TreeHash returns the 40-hex object name of path as of rev.
	TreeHash(ctx context.Context, rev, path string) (string, error)
}
