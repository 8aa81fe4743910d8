package tui

import (
	"fmt"
	"strings"

	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/controller"
	"github.com/pennywise-app/pennywise/internal/ledger"
	"github.com/pennywise-app/pennywise/internal/tui/components"
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldSortField
	settingsFieldSortOrder
	settingsFieldCount
)

type settingsState struct {
	cursor  int
	saved   bool
	saveErr error
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.settings.cursor = min(a.settings.cursor+1, settingsFieldCount-1)
	case "k", "up":
		a.settings.cursor = max(a.settings.cursor-1, 0)
	case "enter", " ":
		a.cycleSetting()
	default:
		return a, nil, false
	}
	return a, nil, true
}

// cycleSetting advances the field under the cursor to its next value,
// applies it and saves the config.
func (a *App) cycleSetting() {
	switch a.settings.cursor {
	case settingsFieldTheme:
		names := theme.Names()
		next := names[0]
		for i, n := range names {
			if n == theme.Active.Name {
				next = names[(i+1)%len(names)]
			}
		}
		theme.SetActive(next)
		a.cfg.Appearance.Theme = next
	case settingsFieldSortField:
		s := a.ctrl.Store().Sort()
		a.ctrl.SortBy(s.Field.Next())
		a.cfg.View.SortField = a.ctrl.Store().Sort().Field.String()
	case settingsFieldSortOrder:
		a.ctrl.ToggleSort()
		a.cfg.View.SortOrder = a.ctrl.Store().Sort().Order.String()
	}

	a.settings.saveErr = a.saveConfig(a.cfg)
	a.settings.saved = a.settings.saveErr == nil
	if a.settings.saveErr != nil {
		a.ctrl.SetStatus(controller.Message{Text: "Could not save settings: " + a.settings.saveErr.Error(), Kind: controller.Error})
	}
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	cursor := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	ok := lipgloss.NewStyle().Foreground(t.Under).Background(t.Surface)

	sort := a.ctrl.Store().Sort()
	fields := []struct{ name, val string }{
		{"Theme", theme.Active.Name},
		{"Sort by", sort.Field.String()},
		{"Sort order", orderLabel(sort.Order)},
	}

	w := min(cw, 72)
	var b strings.Builder
	for i, f := range fields {
		line := fmt.Sprintf("%-12s %s", f.name, f.val)
		if i == a.settings.cursor {
			b.WriteString(cursor.Render("> " + line))
		} else {
			b.WriteString(label.Render("  "+fmt.Sprintf("%-12s ", f.name)) + value.Render(f.val))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render(fmt.Sprintf("  %-12s %s", "Server", config.BaseURL(a.cfg))))
	b.WriteString("\n")
	b.WriteString(dim.Render(fmt.Sprintf("  %-12s %s", "Config", config.Path())))
	b.WriteString("\n\n")
	if a.settings.saved {
		b.WriteString(ok.Render("  Saved."))
	} else {
		b.WriteString(dim.Render("  j/k to move, enter to change"))
	}
	return components.ContentCard("Settings", b.String(), w)
}

func orderLabel(o ledger.Order) string {
	if o == ledger.Ascending {
		return "ascending"
	}
	return "descending"
}
