package components

import (
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom bar: key hints or the last status
// message on the left, right-aligned context on the right.
func RenderStatusBar(width int, message string, isError bool, right string) string {
	t := theme.Active

	base := lipgloss.NewStyle().Background(t.Surface)
	hint := base.Foreground(t.TextDim)

	left := hint.Render(" [?]help  [q]uit")
	if message != "" {
		fg := t.TextPrimary
		if isError {
			fg = t.Over
		}
		left = base.Foreground(fg).Bold(isError).Render(" " + message)
	}
	r := hint.Render(right + " ")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(r), 0)
	return left + base.Render(spaces(gap)) + r
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
