package components

import (
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab is one entry of the tab bar.
type Tab struct {
	Name string
	Key  string
}

// Tabs in display order.
var Tabs = []Tab{
	{Name: "Expenses", Key: "1"},
	{Name: "Categories", Key: "2"},
	{Name: "Alerts", Key: "3"},
	{Name: "Profile", Key: "4"},
	{Name: "Settings", Key: "5"},
}

func renderTab(tab Tab, active bool) string {
	t := theme.Active
	if active {
		return lipgloss.NewStyle().
			Foreground(t.AccentBright).
			Background(t.SurfaceHover).
			Bold(true).
			Padding(0, 1).
			Render(tab.Name)
	}
	name := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(tab.Name)
	key := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("[" + tab.Key + "]")
	return lipgloss.NewStyle().Background(t.Surface).Padding(0, 1).Render(name + key)
}

// TabVisualWidth is the rendered width of tab. Mouse hit testing relies on it
// matching RenderTabBar.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders the tab bar on one line of the given width.
func RenderTabBar(activeIdx, width int) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	var bar string
	for i, tab := range Tabs {
		if i > 0 {
			bar += sep
		}
		bar += renderTab(tab, i == activeIdx)
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(bar)
}

// TabIdxByKey returns the tab bound to key, or -1.
func TabIdxByKey(key string) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
