package tui

import (
	"fmt"
	"strings"

	"github.com/pennywise-app/pennywise/internal/controller"
	"github.com/pennywise-app/pennywise/internal/tui/components"
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (a App) updateProfileKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "e", "enter":
		if a.account == nil {
			a.ctrl.SetStatus(controller.Message{Text: "Offline: the profile cannot be edited.", Kind: controller.Error})
			return a, nil, true
		}
		m, cmd := a.openForm(formProfile, newProfileForm(a.vals, a.user))
		return m, cmd, true
	case "r":
		if a.account == nil {
			return a, nil, true
		}
		return a, fetchAccountCmd(a.account, a.ctrl.Owner()), true
	}
	return a, nil, false
}

func (a App) renderProfileTab(cw int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	warn := lipgloss.NewStyle().Foreground(t.Over).Background(t.Surface)

	w := min(cw, 72)
	var body strings.Builder
	if a.accountErr != "" {
		body.WriteString(warn.Render(a.accountErr))
		body.WriteString("\n\n")
	}
	rows := []struct{ k, v string }{
		{"Username", a.ctrl.Owner()},
		{"Name", a.user.Name},
		{"Email", a.user.Email},
	}
	for _, r := range rows {
		v := r.v
		if v == "" {
			v = "-"
		}
		body.WriteString(label.Render(fmt.Sprintf("%-10s", r.k)))
		body.WriteString(value.Render(v))
		body.WriteString("\n")
	}
	body.WriteString("\n")
	body.WriteString(label.Render("Press e to edit, r to reload."))
	return components.ContentCard("Profile", body.String(), w)
}
