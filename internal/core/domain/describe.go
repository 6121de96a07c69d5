package domain

import "strings"

// Describe returns a human readable label for logs and UIs.
// Labels are not unique and must never be used as keys.
func Describe(d Descriptor) string {
	parts := []string{d.Tool.String()}

	if d.Tool != ToolHelper && d.Version != "" {
		if IsRevision(d.Version) {
			parts = append(parts, "r"+strings.ToLower(d.Version))
		} else {
			parts = append(parts, "v"+d.Version)
		}
	}

	parts = append(parts, d.Platform.OS, d.Platform.Arch)

	if !d.Variant.IsZero() {
		parts = append(parts, d.Variant.String())
	}

	return strings.Join(parts, " ")
}
