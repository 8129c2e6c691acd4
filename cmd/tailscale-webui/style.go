package main

import (
	"github.com/charmbracelet/lipgloss"

	"tailscale-webui/internal/status"
)

var toneStyles = map[status.Tone]lipgloss.Style{
	status.ToneGood:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	status.ToneBad:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	status.ToneNeutral: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func renderLabel(l status.Label) string {
	style, ok := toneStyles[l.Tone]
	if !ok {
		return l.Text
	}
	return style.Render(l.Text)
}
