// Package style provides shared UI styling primitives including colors,
// icons and the cache status labels printed by the CLI.
package style

import "github.com/charmbracelet/lipgloss"

// Colors.
var (
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
	Iris   = lipgloss.Color("#8B5CF6")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Circle  = "○"
)

// Cache status labels.
var (
	Hit    = lipgloss.NewStyle().Foreground(Green).Bold(true)
	Miss   = lipgloss.NewStyle().Foreground(Yellow)
	Failed = lipgloss.NewStyle().Foreground(Red).Bold(true)
	Index  = lipgloss.NewStyle().Foreground(Iris)
	Subtle = lipgloss.NewStyle().Foreground(Slate)
)

// Outcome renders the status column for an ensured build.
func Outcome(hit bool) string {
	if hit {
		return Hit.Render(Check + " cached")
	}
	return Hit.Render(Dot + " built")
}

// Status renders the status column for a cache lookup.
func Status(hit bool) string {
	if hit {
		return Hit.Render(Check + " hit")
	}
	return Miss.Render(Circle + " miss")
}
