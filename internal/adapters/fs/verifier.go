// Package fs provides filesystem checks on build outputs.
package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/zerr"
)

// Verifier provides functionality to verify the existence of files.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyOutputs checks that every output exists as a regular file below root
// and returns them in declaration order.
func (v *Verifier) VerifyOutputs(root string, outputs []string) ([]domain.OutputFile, error) {
	files := make([]domain.OutputFile, 0, len(outputs))
	for _, output := range outputs {
		if !filepath.IsLocal(output) {
			return nil, zerr.With(zerr.Wrap(domain.ErrArtifactMissing, "output escapes the artifact directory"), "output", output)
		}

		path := filepath.Join(root, output)
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, zerr.With(zerr.Wrap(domain.ErrArtifactMissing, "build did not produce output"), "output", output)
		case err != nil:
			return nil, zerr.With(zerr.Wrap(err, "failed to stat output"), "path", path)
		case !info.Mode().IsRegular():
			return nil, zerr.With(zerr.Wrap(domain.ErrArtifactMissing, "output is not a regular file"), "output", output)
		}

		files = append(files, domain.OutputFile{Name: output, Path: path})
	}
	return files, nil
}
