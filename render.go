// render.go
package qlab

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var regionPalette = []string{"63", "205", "86", "214", "39", "170", "120", "208", "45", "196"}

var boundaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

/*
RenderHoneycomb draws a charge-stability diagram in the terminal: one
colored block per grid cell, a distinct color per occupation region,
charge-transition cells dimmed so the honeycomb edges stand out. The
legend maps colors back to occupation vectors.

Rows render with the Y axis pointing up, matching how the diagrams are
plotted in the lab.
*/
func RenderHoneycomb(h *Honeycomb) string {
	styles := regionStyles(h)

	var b strings.Builder
	for y := len(h.Occupations) - 1; y >= 0; y-- {
		for x, occ := range h.Occupations[y] {
			if h.Boundaries[y][x] {
				b.WriteString(boundaryStyle.Render("··"))
				continue
			}
			b.WriteString(styles[occ.Key()].Render("██"))
		}
		b.WriteByte('\n')
	}

	// Legend, in a stable order.
	keys := make([]string, 0, len(styles))
	for key := range styles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteString(styles[key].Render("██"))
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteString("  ")
	}
	b.WriteByte('\n')
	return b.String()
}

func regionStyles(h *Honeycomb) map[string]lipgloss.Style {
	styles := make(map[string]lipgloss.Style)
	next := 0
	for _, row := range h.Occupations {
		for _, occ := range row {
			key := occ.Key()
			if _, ok := styles[key]; ok {
				continue
			}
			color := regionPalette[next%len(regionPalette)]
			styles[key] = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			next++
		}
	}
	return styles
}
