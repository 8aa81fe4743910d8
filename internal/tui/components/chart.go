package components

import (
	"strings"

	"github.com/pennywise-app/pennywise/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as one line of block characters, scaled to the
// largest value.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := min(max(int(v/peak*float64(len(blocks)-1)), 0), len(blocks)-1)
		b.WriteRune(blocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(b.String())
}

// ColumnChart draws one column per value, height rows tall, with labels
// under the columns. limit, when positive, is drawn as a marker on any
// column that exceeds it.
func ColumnChart(values []float64, labels []string, limit float64, colWidth, height int) string {
	if len(values) == 0 || height < 1 {
		return ""
	}
	t := theme.Active
	peak := limit
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	under := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	over := lipgloss.NewStyle().Foreground(t.Over).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	col := repeat('█', max(colWidth-1, 1))
	pad := blank.Render(" ")
	empty := blank.Render(strings.Repeat(" ", max(colWidth-1, 1)))

	rows := make([]string, 0, height+1)
	for row := height; row >= 1; row-- {
		var line strings.Builder
		for _, v := range values {
			filled := int(v/peak*float64(height) + 0.5)
			switch {
			case filled < row:
				line.WriteString(empty)
			case limit > 0 && v > limit:
				line.WriteString(over.Render(col))
			default:
				line.WriteString(under.Render(col))
			}
			line.WriteString(pad)
		}
		rows = append(rows, line.String())
	}

	var line strings.Builder
	for i := range values {
		l := ""
		if i < len(labels) {
			l = labels[i]
		}
		line.WriteString(label.Render(fitLabel(l, colWidth)))
	}
	rows = append(rows, line.String())
	return strings.Join(rows, "\n")
}

func fitLabel(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		return string(r[:w])
	}
	return s + strings.Repeat(" ", w-len(r))
}
