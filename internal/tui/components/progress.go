package components

import (
	"fmt"

	"github.com/pennywise-app/pennywise/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// SpendBar renders label, a bar filled to ratio, and the percentage. Ratios
// above 1 draw a full bar in the over-limit color.
func SpendBar(label string, ratio float64, labelW, barWidth int) string {
	t := theme.Active
	color := t.ForRatio(ratio)
	fill := min(max(ratio, 0), 1)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		space +
		bar.ViewAs(fill) +
		space +
		pctStyle.Render(fmt.Sprintf("%4.0f%%", ratio*100))
}

// ShareBar renders a plain proportional bar for category shares.
func ShareBar(share float64, width int) string {
	t := theme.Active
	filled := min(max(int(share*float64(width)+0.5), 0), width)
	on := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	off := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	return on.Render(repeat('█', filled)) + off.Render(repeat('░', width-filled))
}

func repeat(r rune, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}
