package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/toolcache/internal/adapters/fs"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
)

var _ ports.Verifier = (*fs.Verifier)(nil)

func TestVerifier_VerifyOutputs(t *testing.T) {
	tmpDir := t.TempDir()
	verifier := fs.NewVerifier()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "git-2.18.0.tar.xz"), []byte("content"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "coverage.tar.xz"), []byte("content"), 0o600))

	files, err := verifier.VerifyOutputs(tmpDir, []string{"git-2.18.0.tar.xz", "coverage.tar.xz"})
	require.NoError(t, err)
	assert.Equal(t, []domain.OutputFile{
		{Name: "git-2.18.0.tar.xz", Path: filepath.Join(tmpDir, "git-2.18.0.tar.xz")},
		{Name: "coverage.tar.xz", Path: filepath.Join(tmpDir, "coverage.tar.xz")},
	}, files)
}

func TestVerifier_VerifyOutputs_Missing(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "dir"), 0o750))
	verifier := fs.NewVerifier()

	for _, output := range []string{"missing.whl", "dir", "../escape", "/etc/passwd"} {
		t.Run(output, func(t *testing.T) {
			files, err := verifier.VerifyOutputs(tmpDir, []string{output})
			require.ErrorIs(t, err, domain.ErrArtifactMissing)
			assert.Nil(t, files)
		})
	}
}

func TestVerifier_VerifyOutputs_Empty(t *testing.T) {
	files, err := fs.NewVerifier().VerifyOutputs(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}
