// Package git answers history queries about the helper sources with the git CLI.
package git

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/zerr"
)

// History implements ports.History for a git working tree.
type History struct {
	dir string
	bin string
}

// NewHistory creates a History that runs git inside dir.
func NewHistory(dir string) *History {
	return &History{dir: dir, bin: "git"}
}

// IntroducingRevision returns the oldest commit reachable from HEAD whose diff
// adds or removes marker.
func (h *History) IntroducingRevision(ctx context.Context, marker string) (string, error) {
	out, err := h.run(ctx, "log", "HEAD", "--format=%H", "-S", marker)
	if err != nil {
		return "", zerr.With(err, "marker", marker)
	}

	lines := strings.Fields(out)
	if len(lines) == 0 {
		return "", zerr.With(zerr.Wrap(domain.ErrUnresolvedReference, "no commit introduces marker"), "marker", marker)
	}

	// git log lists newest first.
	return lines[len(lines)-1], nil
}

// TreeHash returns the object name of path as of rev.
func (h *History) TreeHash(ctx context.Context, rev, path string) (string, error) {
	commit, err := h.resolve(ctx, rev)
	if err != nil {
		return "", err
	}

	out, err := h.run(ctx, "ls-tree", commit, "--", path)
	if err != nil {
		return "", zerr.With(zerr.With(err, "rev", rev), "path", path)
	}

	// <mode> SP <type> SP <object> TAB <path>
	fields := strings.Fields(out)
	if len(fields) < 3 || !domain.IsRevision(fields[2]) {
		err := zerr.With(zerr.Wrap(domain.ErrUnresolvedReference, "path not found in revision"), "rev", rev)
		return "", zerr.With(err, "path", path)
	}
	return fields[2], nil
}

func (h *History) resolve(ctx context.Context, rev string) (string, error) {
	//nolint:gosec // rev is validated as a ref name before it gets here
	cmd := exec.CommandContext(ctx, h.bin, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	cmd.Dir = h.dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", zerr.With(zerr.Wrap(domain.ErrUnresolvedReference, "unknown revision"), "rev", rev)
		}
		return "", h.failure(err, "rev-parse")
	}
	return strings.TrimSpace(string(out)), nil
}

func (h *History) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, h.bin, args...)
	cmd.Dir = h.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", zerr.With(h.failure(err, args[0]), "stderr", strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

func (h *History) failure(err error, subcommand string) error {
	wrapped := zerr.Wrap(errors.Join(domain.ErrHistoryQueryFailed, err), "git "+subcommand+" failed")
	return zerr.With(wrapped, "dir", h.dir)
}
