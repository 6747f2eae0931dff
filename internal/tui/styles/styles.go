// Package styles holds the lipgloss palette shared by console notifications,
// the waves table and the progress view.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors meet WCAG AA contrast on black and dark surfaces
	PrimaryColor = lipgloss.Color("#A78BFA") // Purple
	SuccessColor = lipgloss.Color("#10B981") // Green
	WarningColor = lipgloss.Color("#F59E0B") // Amber
	ErrorColor   = lipgloss.Color("#F87171") // Red
	MutedColor   = lipgloss.Color("#9CA3AF") // Gray
	RunningColor = lipgloss.Color("#60A5FA") // Blue
	BorderColor  = lipgloss.Color("#6B7280") // Gray

	Primary = lipgloss.NewStyle().Foreground(PrimaryColor)
	Success = lipgloss.NewStyle().Foreground(SuccessColor)
	Warning = lipgloss.NewStyle().Foreground(WarningColor)
	Error   = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted   = lipgloss.NewStyle().Foreground(MutedColor)
	Running = lipgloss.NewStyle().Foreground(RunningColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	// Severity badges prefixed to console notifications
	InfoBadge    = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)
	WarningBadge = lipgloss.NewStyle().Bold(true).Foreground(WarningColor)
	ErrorBadge   = lipgloss.NewStyle().Bold(true).Foreground(ErrorColor)

	WaveHeader = lipgloss.NewStyle().Bold(true)

	TableHeader = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor).Padding(0, 1)
	TableCell   = lipgloss.NewStyle().Padding(0, 1)

	Footer = lipgloss.NewStyle().Foreground(MutedColor).MarginTop(1)
)

// Plan status labels and their styles, shared by the waves table and the
// progress view.
const (
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusDone     = "done"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
	StatusComplete = "complete"
)

// Status returns the style for a plan status label.
func Status(status string) lipgloss.Style {
	switch status {
	case StatusRunning:
		return Running
	case StatusDone, StatusComplete:
		return Success
	case StatusSkipped:
		return Muted
	case StatusFailed:
		return Error
	default:
		return Muted
	}
}
