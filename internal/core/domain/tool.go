// Package domain contains the core domain models for tool build caching.
package domain

import "go.trai.ch/zerr"

// Tool is the closed set of tools whose builds are cached.
type Tool uint8

const (
	// ToolUnknown is the zero value and never a valid tool.
	ToolUnknown Tool = iota
	// ToolGit builds or fetches a git distribution.
	ToolGit
	// ToolHg builds a Mercurial wheel.
	ToolHg
	// ToolHelper builds the native helper binary.
	ToolHelper
)

// Tools lists every valid tool in index order.
var Tools = []Tool{ToolGit, ToolHg, ToolHelper}

// ParseTool maps a tool name to its Tool value.
func ParseTool(name string) (Tool, error) {
	switch name {
	case "git":
		return ToolGit, nil
	case "hg":
		return ToolHg, nil
	case "helper":
		return ToolHelper, nil
	default:
		return ToolUnknown, zerr.With(zerr.Wrap(ErrUnknownTool, "invalid descriptor"), "tool", name)
	}
}

// String returns the tool prefix used in indices and labels.
func (t Tool) String() string {
	switch t {
	case ToolGit:
		return "git"
	case ToolHg:
		return "hg"
	case ToolHelper:
		return "helper"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the known tools.
func (t Tool) Valid() bool {
	return t == ToolGit || t == ToolHg || t == ToolHelper
}

// MarshalText implements encoding.TextMarshaler.
func (t Tool) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tool) UnmarshalText(text []byte) error {
	parsed, err := ParseTool(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
