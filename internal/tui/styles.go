package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary   = lipgloss.Color("62")
	secondary = lipgloss.Color("245")
	danger    = lipgloss.Color("203")
	success   = lipgloss.Color("78")

	headerStyle   = lipgloss.NewStyle().Foreground(primary).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errorStyle    = lipgloss.NewStyle().Foreground(danger)
	statusStyle   = lipgloss.NewStyle().Foreground(success)
	tagStyle      = lipgloss.NewStyle().Foreground(secondary).Italic(true)
	selectedStyle = lipgloss.NewStyle().Foreground(primary).Bold(true)
	currentPage   = lipgloss.NewStyle().Foreground(primary).Bold(true).Underline(true)

	formBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primary).
		Padding(0, 1)
)
