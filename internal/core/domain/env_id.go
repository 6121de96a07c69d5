package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// EnvironmentSpec describes the container image and toolchain a platform builds in.
type EnvironmentSpec struct {
	Image    string
	Packages map[string]string
}

// GenerateEnvFingerprint creates a deterministic hash of a build environment.
func GenerateEnvFingerprint(p Platform, spec EnvironmentSpec) string {
	// Sort keys for deterministic ordering
	names := make([]string, 0, len(spec.Packages))
	for name := range spec.Packages {
		names = append(names, name)
	}
	slices.Sort(names)

	var builder strings.Builder
	builder.WriteString("platform:")
	builder.WriteString(p.String())
	builder.WriteString(";image:")
	builder.WriteString(spec.Image)
	builder.WriteString(";")
	for _, name := range names {
		builder.WriteString(name)
		builder.WriteString(":")
		builder.WriteString(spec.Packages[name])
		builder.WriteString(";")
	}

	hash := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(hash[:])
}
