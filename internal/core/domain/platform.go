package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Operating systems a tool can be built for.
const (
	OSLinux   = "linux"
	OSWindows = "windows"
	OSMacOS   = "macos"
)

// CPU architectures a tool can be built for.
const (
	ArchX86    = "x86"
	ArchX86_64 = "x86_64"
	ArchARM64  = "arm64"
)

var (
	knownOS   = map[string]struct{}{OSLinux: {}, OSWindows: {}, OSMacOS: {}}
	knownArch = map[string]struct{}{ArchX86: {}, ArchX86_64: {}, ArchARM64: {}}
)

// Platform is the (operating system, CPU architecture) pair a task targets.
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// DefaultPlatform is the platform used when none is given.
var DefaultPlatform = Platform{OS: OSLinux, Arch: ArchX86_64}

// ParsePlatform parses "<os>/<arch>".
func ParsePlatform(s string) (Platform, error) {
	osName, arch, ok := strings.Cut(s, "/")
	if !ok {
		return Platform{}, zerr.With(zerr.Wrap(ErrInvalidPlatform, "expected <os>/<arch>"), "platform", s)
	}
	p := Platform{OS: osName, Arch: arch}
	if err := p.Validate(); err != nil {
		return Platform{}, err
	}
	return p, nil
}

// Validate checks that both halves of the platform are known values.
func (p Platform) Validate() error {
	if _, ok := knownOS[p.OS]; !ok {
		return zerr.With(zerr.Wrap(ErrInvalidPlatform, "unknown operating system"), "os", p.OS)
	}
	if _, ok := knownArch[p.Arch]; !ok {
		return zerr.With(zerr.Wrap(ErrInvalidPlatform, "unknown architecture"), "arch", p.Arch)
	}
	return nil
}

// String returns "<os>/<arch>".
func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// Bits returns the pointer width of the architecture.
func (p Platform) Bits() int {
	if p.Arch == ArchX86 {
		return 32
	}
	return 64
}
