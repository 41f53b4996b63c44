package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	panel     lipgloss.Style
	header    lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	running   lipgloss.Style
	paused    lipgloss.Style
	recording lipgloss.Style
	graph     lipgloss.Style
	hint      lipgloss.Style
	status    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2).
			Width(40),
		header:    lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:     lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:     lipgloss.NewStyle().Foreground(t.Text),
		running:   lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		paused:    lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		recording: lipgloss.NewStyle().Foreground(t.Warning).Bold(true).Blink(true),
		graph:     lipgloss.NewStyle().Foreground(t.Accent),
		hint:      lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		status:    lipgloss.NewStyle().Foreground(t.Secondary),
	}
}

// ProgressBar renders a fraction in [0, 1] as a fixed-width bar.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	v = min(max(v, 0), 255)
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
