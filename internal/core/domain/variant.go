package domain

import (
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// VariantKind enumerates the named build configurations.
type VariantKind uint8

const (
	// VariantNone is the plain build.
	VariantNone VariantKind = iota
	// VariantASan is an AddressSanitizer build.
	VariantASan
	// VariantCoverage is a gcov instrumented build.
	VariantCoverage
	// VariantOld is a build of a historical helper revision.
	VariantOld
)

var revisionRefPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._/-]*$`)

// Variant is a named build configuration of an otherwise identical tool/version pair.
// Revision is only set for "old:<rev>" and points at the historical source revision.
type Variant struct {
	Kind     VariantKind
	Revision string
}

// ParseVariant parses "", "asan", "coverage", "old" or "old:<rev>".
// Anything else is a configuration error.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "":
		return Variant{}, nil
	case "asan":
		return Variant{Kind: VariantASan}, nil
	case "coverage":
		return Variant{Kind: VariantCoverage}, nil
	case "old":
		return Variant{Kind: VariantOld}, nil
	}

	if rev, ok := strings.CutPrefix(s, "old:"); ok {
		if !revisionRefPattern.MatchString(rev) {
			return Variant{}, zerr.With(zerr.Wrap(ErrUnknownVariant, "invalid revision pointer"), "variant", s)
		}
		return Variant{Kind: VariantOld, Revision: rev}, nil
	}

	return Variant{}, zerr.With(zerr.Wrap(ErrUnknownVariant, "invalid descriptor"), "variant", s)
}

// IsZero reports whether this is the plain build.
func (v Variant) IsZero() bool {
	return v.Kind == VariantNone
}

// String returns the textual form accepted by ParseVariant.
func (v Variant) String() string {
	switch v.Kind {
	case VariantASan:
		return "asan"
	case VariantCoverage:
		return "coverage"
	case VariantOld:
		if v.Revision != "" {
			return "old:" + v.Revision
		}
		return "old"
	default:
		return ""
	}
}

// indexToken is the disambiguating field folded into the cache index.
// The old family contributes nothing: its identity is the resolved source hash.
func (v Variant) indexToken() string {
	switch v.Kind {
	case VariantASan, VariantCoverage:
		return v.String()
	default:
		return ""
	}
}
