package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Descriptor is the full semantic identity of one tool build.
//
// Tool, Platform, Version, Variant and EnvFingerprint take part in the cache index.
// Checkout only tells the recipe which source revision to build from; two descriptors
// that differ only in Checkout describe the same artifact.
type Descriptor struct {
	Tool           Tool
	Platform       Platform
	Version        string
	Variant        Variant
	EnvFingerprint string
	Checkout       string
}

// Validate checks every identity field and fails fast with a configuration error.
func (d Descriptor) Validate() error {
	if !d.Tool.Valid() {
		return zerr.With(zerr.Wrap(ErrUnknownTool, "invalid descriptor"), "tool", d.Tool.String())
	}
	if err := d.Platform.Validate(); err != nil {
		return err
	}
	if !Supports(d.Tool, d.Platform) {
		err := zerr.With(zerr.Wrap(ErrUnsupportedPlatform, "invalid descriptor"), "tool", d.Tool.String())
		return zerr.With(err, "platform", d.Platform.String())
	}
	if d.Tool != ToolHelper && !d.Variant.IsZero() {
		err := zerr.With(zerr.Wrap(ErrVariantNotSupported, "invalid descriptor"), "tool", d.Tool.String())
		return zerr.With(err, "variant", d.Variant.String())
	}
	if _, err := ClassifyVersion(d.Tool, d.Version); err != nil {
		return err
	}
	if !Prebuilt(d.Tool, d.Platform) && !IsHex(d.EnvFingerprint) {
		err := zerr.With(zerr.Wrap(ErrMissingEnvFingerprint, "invalid descriptor"), "tool", d.Tool.String())
		return zerr.With(err, "platform", d.Platform.String())
	}
	return nil
}

// Request is an unresolved build request as typed by a user: the helper source
// hash and the environment fingerprint are still missing.
type Request struct {
	Tool     Tool
	Version  string
	Variant  Variant
	Platform Platform
}

// ParseSpec parses "<tool>[@<version>][+<variant>]" for the given platform.
func ParseSpec(spec string, platform Platform) (Request, error) {
	if spec == "" {
		return Request{}, zerr.Wrap(ErrInvalidSpec, "empty spec")
	}

	rest := spec
	variant := ""
	if head, tail, ok := strings.Cut(rest, "+"); ok {
		rest, variant = head, tail
		if variant == "" {
			return Request{}, zerr.With(zerr.Wrap(ErrInvalidSpec, "empty variant"), "spec", spec)
		}
	}

	name, version, hasVersion := strings.Cut(rest, "@")
	if hasVersion && version == "" {
		return Request{}, zerr.With(zerr.Wrap(ErrInvalidSpec, "empty version"), "spec", spec)
	}

	tool, err := ParseTool(name)
	if err != nil {
		return Request{}, err
	}
	v, err := ParseVariant(variant)
	if err != nil {
		return Request{}, err
	}
	if err := platform.Validate(); err != nil {
		return Request{}, err
	}
	if tool != ToolHelper && !hasVersion {
		return Request{}, zerr.With(zerr.Wrap(ErrInvalidVersion, "version must not be empty"), "tool", tool.String())
	}

	return Request{
		Tool:     tool,
		Version:  version,
		Variant:  v,
		Platform: platform,
	}, nil
}

// String renders the request back in spec syntax.
func (r Request) String() string {
	var b strings.Builder
	b.WriteString(r.Tool.String())
	if r.Version != "" {
		b.WriteString("@")
		b.WriteString(r.Version)
	}
	if !r.Variant.IsZero() {
		b.WriteString("+")
		b.WriteString(r.Variant.String())
	}
	return b.String()
}
