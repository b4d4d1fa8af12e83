package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7B801")).
			MarginBottom(1)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7B801"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4CAF50"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			MarginTop(1)
)

var statusStyles = map[string]lipgloss.Style{
	"PENDING":        lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
	"EN_PREPARACION": lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
	"LISTO":          lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
	"ENTREGADO":      lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	"CANCELADO":      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
}

func statusStyle(status string) lipgloss.Style {
	if style, ok := statusStyles[status]; ok {
		return style
	}
	return mutedStyle
}
