package ports

import "go.trai.ch/toolcache/internal/core/domain"

// Verifier checks that a build left its declared artifacts behind.
//
//go:generate mockgen -source=verifier.go -destination=mocks/mock_verifier.go -package=mocks
type Verifier interface {
	// VerifyOutputs resolves every output name under root.
	// It fails with domain.ErrArtifactMissing if one of them does not exist.
	VerifyOutputs(root string, outputs []string) ([]domain.OutputFile, error)
}
