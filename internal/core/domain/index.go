package domain

import (
	"strings"
	"time"
)

const (
	// IndexSeparator separates the fixed fields of a cache index.
	IndexSeparator = "."
	// VariantSeparator introduces the variant field. Versions never contain it.
	VariantSeparator = "~"
	// PrebuiltEnv replaces the environment fingerprint for downloaded binaries.
	PrebuiltEnv = "prebuilt"
)

// ExpiryPolicy holds the time-to-live applied to stored artifacts.
type ExpiryPolicy struct {
	// Release applies to named versions and helper source hashes.
	Release time.Duration
	// Revision applies to builds pinned to an exact source revision.
	Revision time.Duration
}

// DefaultExpiryPolicy keeps releases for 26 weeks and revision builds for 2 weeks.
func DefaultExpiryPolicy() ExpiryPolicy {
	return ExpiryPolicy{
		Release:  26 * 7 * 24 * time.Hour,
		Revision: 2 * 7 * 24 * time.Hour,
	}
}

// DeriveIndex maps a descriptor to its cache index:
//
//	<tool>.<os>.<arch>.<env>.<kind><version>[~<variant>]
//
// It is pure and safe for concurrent use.
func DeriveIndex(d Descriptor) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	kind, _ := ClassifyVersion(d.Tool, d.Version)

	env := PrebuiltEnv
	if !Prebuilt(d.Tool, d.Platform) {
		env = strings.ToLower(d.EnvFingerprint)
	}

	version := d.Version
	if kind != VersionRelease {
		version = strings.ToLower(version)
	}

	var b strings.Builder
	for i, field := range []string{d.Tool.String(), d.Platform.OS, d.Platform.Arch, env} {
		if i > 0 {
			b.WriteString(IndexSeparator)
		}
		b.WriteString(field)
	}
	b.WriteString(IndexSeparator)
	b.WriteString(kind.prefix())
	b.WriteString(version)

	if token := d.Variant.indexToken(); token != "" {
		b.WriteString(VariantSeparator)
		b.WriteString(token)
	}

	return b.String(), nil
}

// ExpiryFor returns the time-to-live for the artifact of d under policy.
func ExpiryFor(d Descriptor, policy ExpiryPolicy) time.Duration {
	if d.Tool != ToolHelper && IsRevision(d.Version) {
		return policy.Revision
	}
	return policy.Release
}
