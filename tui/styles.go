package tui

import "github.com/charmbracelet/lipgloss"

// Styles for the TUI
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Accent  lipgloss.Style
	Dim     lipgloss.Style
	Pane    lipgloss.Style
	Focused lipgloss.Style
}

func NewStyles() *Styles {
	pane := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")), // Magenta
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),            // Blue
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),            // Green
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),             // Red
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),            // Yellow
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),            // Cyan
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")),            // Magenta
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),             // Gray
		Pane:    pane,
		Focused: pane.BorderForeground(lipgloss.Color("12")),
	}
}
