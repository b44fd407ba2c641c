package terminal

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pylab/leaderboard/internal/domain/report"
)

func hex(c report.Color) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

var (
	colorAccent = hex(report.Accent)
	colorTint   = hex(report.Tint)
	colorGray   = lipgloss.Color("#888888")
	colorWhite  = lipgloss.Color("#FFFFFF")
)

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	filled  lipgloss.Style
	empty   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	border  lipgloss.Style
	kpiCard lipgloss.Style
	info    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			MarginBottom(1),
		label: r.NewStyle().
			Foreground(colorGray),
		value: r.NewStyle().
			Bold(true).
			Foreground(colorAccent),
		filled: r.NewStyle().Foreground(colorAccent),
		empty:  r.NewStyle().Foreground(colorTint),
		header: r.NewStyle().
			Bold(true).
			Padding(0, 1),
		cell: r.NewStyle().Padding(0, 1),
		border: r.NewStyle().
			Foreground(colorGray),
		kpiCard: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 2).
			MarginRight(1),
		info: r.NewStyle().
			Foreground(colorGray).
			Italic(true),
	}
}
