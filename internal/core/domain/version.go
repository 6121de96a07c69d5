package domain

import (
	"regexp"

	"go.trai.ch/zerr"
)

// VersionKind classifies the Version field of a descriptor.
type VersionKind uint8

const (
	// VersionRelease is a published, stable version such as "2.18.0".
	VersionRelease VersionKind = iota
	// VersionRevision is an exact 40-hex source revision.
	VersionRevision
	// VersionSourceHash is the 40-hex content hash of the helper sources.
	VersionSourceHash
)

const revisionLength = 40

var (
	hexPattern     = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	releasePattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._-]*$`)
)

// IsRevision reports whether s is a full 40 character hex object name.
func IsRevision(s string) bool {
	return len(s) == revisionLength && hexPattern.MatchString(s)
}

// IsHex reports whether s is a non-empty hex string.
func IsHex(s string) bool {
	return s != "" && hexPattern.MatchString(s)
}

// ClassifyVersion validates a version for the given tool and returns its kind.
func ClassifyVersion(tool Tool, version string) (VersionKind, error) {
	if version == "" {
		return 0, zerr.With(zerr.Wrap(ErrInvalidVersion, "version must not be empty"), "tool", tool.String())
	}

	if tool == ToolHelper {
		if !IsRevision(version) {
			err := zerr.With(zerr.Wrap(ErrInvalidVersion, "helper version must be a 40-hex source hash"), "tool", tool.String())
			return 0, zerr.With(err, "version", version)
		}
		return VersionSourceHash, nil
	}

	if IsRevision(version) {
		return VersionRevision, nil
	}
	if !releasePattern.MatchString(version) {
		err := zerr.With(zerr.Wrap(ErrInvalidVersion, "malformed version"), "tool", tool.String())
		return 0, zerr.With(err, "version", version)
	}
	return VersionRelease, nil
}

// prefix is the single letter that separates the kinds inside an index.
func (k VersionKind) prefix() string {
	switch k {
	case VersionRevision:
		return "r"
	case VersionSourceHash:
		return "h"
	default:
		return "v"
	}
}
