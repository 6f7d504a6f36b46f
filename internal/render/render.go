package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/tutortrace/internal/palette"
	"github.com/Zuo-Peng/tutortrace/internal/stats"
)

const separator = "--------------------------------------------------"

type Options struct {
	Color bool // swatches and aligned columns for terminals
}

var (
	styleHeader = lipgloss.NewStyle().Bold(true)
	styleTutor  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Summary renders the per-tutor statistics for the console. Tutors come in
// report order; tags by descending count.
func Summary(r *stats.Report, pal *palette.Palette, opts Options) string {
	if opts.Color {
		return colorSummary(r, pal)
	}

	var b strings.Builder
	b.WriteString("\nMessage Statistics by Tutor:\n")
	b.WriteString(separator + "\n")
	for _, t := range r.Tutors {
		fmt.Fprintf(&b, "\nTutor: %s\n", t.Name)
		fmt.Fprintf(&b, "Total Messages: %d\n", t.Total)
		b.WriteString("Message Types:\n")
		for _, tc := range t.Tags {
			fmt.Fprintf(&b, "  - %s: %d (%s)\n", tc.Tag, tc.Count, stats.FormatPercent(tc.Percent))
		}
	}
	return b.String()
}

func colorSummary(r *stats.Report, pal *palette.Palette) string {
	var b strings.Builder
	b.WriteString("\n" + styleHeader.Render("Message Statistics by Tutor:") + "\n")
	b.WriteString(styleDim.Render(separator) + "\n")

	for _, t := range r.Tutors {
		width := 0
		for _, tc := range t.Tags {
			if w := runewidth.StringWidth(tc.Tag); w > width {
				width = w
			}
		}

		fmt.Fprintf(&b, "\n%s %s\n", styleDim.Render("Tutor:"), styleTutor.Render(t.Name))
		fmt.Fprintf(&b, "%s %d\n", styleDim.Render("Total Messages:"), t.Total)
		b.WriteString(styleDim.Render("Message Types:") + "\n")
		for _, tc := range t.Tags {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(pal.Hex(tc.Tag))).Render("■")
			fmt.Fprintf(&b, "  %s %s %5d %s\n",
				swatch,
				runewidth.FillRight(tc.Tag, width),
				tc.Count,
				styleDim.Render("("+stats.FormatPercent(tc.Percent)+")"),
			)
		}
	}
	return b.String()
}
