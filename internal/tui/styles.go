package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Header         lipgloss.Style
	User           lipgloss.Style
	Assistant      lipgloss.Style
	Pending        lipgloss.Style
	Error          lipgloss.Style
	Badge          lipgloss.Style // sibling version indicator, e.g. ‹ 2/3 ›
	BadgeActive    lipgloss.Style
	Sidebar        lipgloss.Style
	SidebarTitle   lipgloss.Style
	ChatItem       lipgloss.Style
	ChatSelected   lipgloss.Style
	MatchNote      lipgloss.Style
	Separator      lipgloss.Style
	StatusBar      lipgloss.Style
	StatusError    lipgloss.Style
	Spinner        lipgloss.Style
	CursorMarker   lipgloss.Style
	InputBorder    lipgloss.Style
	InputFocused   lipgloss.Style
	ModelIndicator lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240"))
	return Styles{
		Header:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		User:           lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Pending:        lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Error:          lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Badge:          lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		BadgeActive:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		Sidebar:        border.Width(sidebarWidth - 2),
		SidebarTitle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		ChatItem:       lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		ChatSelected:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		MatchNote:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Separator:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		StatusError:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Spinner:        lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		CursorMarker:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		InputBorder:    border,
		InputFocused:   border.BorderForeground(lipgloss.Color("86")),
		ModelIndicator: lipgloss.NewStyle().Foreground(lipgloss.Color("110")),
	}
}
