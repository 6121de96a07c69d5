package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrUnknownTool is returned when a descriptor names a tool outside git, hg and helper.
	ErrUnknownTool = zerr.New("unknown tool")

	// ErrInvalidVersion is returned when a version is empty or malformed.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrUnknownVariant is returned when a variant token is not recognized.
	ErrUnknownVariant = zerr.New("unknown variant")

	// ErrVariantNotSupported is returned when a variant is requested for a tool without variants.
	ErrVariantNotSupported = zerr.New("variant not supported for tool")

	// ErrInvalidPlatform is returned when an operating system or architecture is unknown.
	ErrInvalidPlatform = zerr.New("invalid platform")

	// ErrUnsupportedPlatform is returned when a tool has no recipe for a platform.
	ErrUnsupportedPlatform = zerr.New("tool is not supported on platform")

	// ErrMissingEnvFingerprint is returned when a source build lacks an environment fingerprint.
	ErrMissingEnvFingerprint = zerr.New("missing environment fingerprint")

	// ErrInvalidSpec is returned when a build spec cannot be parsed.
	ErrInvalidSpec = zerr.New("invalid spec, expected format: tool[@version][+variant]")

	// ErrUnknownEnvironment is returned when no build environment is defined for a platform.
	ErrUnknownEnvironment = zerr.New("no build environment defined for platform")

	// ErrInvalidConfig is returned when the configuration has invalid values.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrUnresolvedReference is returned when the history has no revision matching a query.
	ErrUnresolvedReference = zerr.New("cannot resolve historical reference")

	// ErrHistoryQueryFailed is returned when the version control command itself fails.
	ErrHistoryQueryFailed = zerr.New("history query failed")

	// ErrStoreUnavailable marks artifact store failures that may succeed when retried later.
	ErrStoreUnavailable = zerr.New("artifact store unavailable")

	// ErrStoreRejected is returned when a remote store refuses a request outright.
	ErrStoreRejected = zerr.New("artifact store rejected request")

	// ErrStoreCorrupt is returned when a stored manifest fails its integrity check.
	ErrStoreCorrupt = zerr.New("artifact store entry is corrupt")

	// ErrArtifactMissing is returned when a build does not produce a declared artifact.
	ErrArtifactMissing = zerr.New("declared artifact was not produced")

	// ErrBuildFailed is returned when a recipe command fails.
	ErrBuildFailed = zerr.New("build failed")

	// ErrNoSpecsGiven is returned when a command needs at least one spec.
	ErrNoSpecsGiven = zerr.New("no specs given")
)

var configErrors = []error{
	ErrUnknownTool,
	ErrInvalidVersion,
	ErrUnknownVariant,
	ErrVariantNotSupported,
	ErrInvalidPlatform,
	ErrUnsupportedPlatform,
	ErrMissingEnvFingerprint,
	ErrInvalidSpec,
	ErrUnknownEnvironment,
	ErrInvalidConfig,
}

// IsConfigError reports whether err is a configuration error that must not be retried.
func IsConfigError(err error) bool {
	for _, target := range configErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsTransient reports whether err is a store failure a caller may retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
