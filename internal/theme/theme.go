// Package theme holds the lipgloss styles used by command output.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/task-reminders/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for section headers.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// PanelStyle frames a block such as the sweep report.
var PanelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// LabelStyle renders field names in key/value output.
var LabelStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Width(10)

// MutedStyle is for secondary text such as IDs.
var MutedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// ErrorStyle is for error lines on stderr.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// StatusStyle returns a color-coded style for a task status.
func StatusStyle(status model.TaskStatus) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Width(12)

	switch status {
	case model.StatusTodo:
		return base.Foreground(ColorBlue)
	case model.StatusInProgress:
		return base.Foreground(ColorYellow)
	case model.StatusDone:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// RoleStyle returns a style for a user role.
func RoleStyle(role model.Role) lipgloss.Style {
	if role == model.RoleAdmin {
		return lipgloss.NewStyle().Bold(true).Foreground(ColorRed).Width(7)
	}
	return lipgloss.NewStyle().Foreground(ColorGray).Width(7)
}

// DueStyle colors a due date relative to today: red when overdue, yellow
// within the upcoming window, plain otherwise.
func DueStyle(due, today model.Date, upcomingDays int) lipgloss.Style {
	base := lipgloss.NewStyle().Width(11)

	switch {
	case due.Before(today):
		return base.Foreground(ColorRed)
	case !due.After(today.AddDays(upcomingDays)):
		return base.Foreground(ColorYellow)
	default:
		return base
	}
}
