package tui

import (
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/controller"
	"github.com/pennywise-app/pennywise/internal/report"
	"github.com/pennywise-app/pennywise/internal/tui/components"
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (a App) updateAlertsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "e", "enter":
		if a.account == nil {
			a.ctrl.SetStatus(controller.Message{Text: "Offline: the threshold cannot be changed.", Kind: controller.Error})
			return a, nil, true
		}
		m, cmd := a.openForm(formThreshold, newThresholdForm(a.vals, a.threshold))
		return m, cmd, true
	case "r":
		if a.account == nil {
			return a, nil, true
		}
		return a, fetchAccountCmd(a.account, a.ctrl.Owner()), true
	}
	return a, nil, false
}

func (a App) renderAlertsTab(cw int) string {
	t := theme.Active
	now := time.Now()
	spent := report.MonthSpend(a.ctrl.Store().All(), now)
	st := report.ThresholdStatus(a.threshold, now, spent)

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Over).Background(t.Surface).Bold(true)

	limit := "not set"
	remaining := "-"
	if st.Limit != nil {
		limit = cli.FormatAmount(*st.Limit)
		remaining = cli.FormatAmount(st.Remaining)
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Spent in " + cli.FormatMonth(st.Month), Value: cli.FormatAmount(st.Spent)},
		{Label: "Threshold", Value: limit},
		{Label: "Remaining", Value: remaining},
	}, cw))
	b.WriteString("\n")

	var body strings.Builder
	switch {
	case a.accountErr != "":
		body.WriteString(warn.Render(a.accountErr))
	case st.Limit == nil:
		body.WriteString(muted.Render("No monthly threshold set. Press e to set one."))
	default:
		inner := components.CardInnerWidth(cw)
		body.WriteString(components.SpendBar("Used", st.UsedPercent/100, 6, max(inner-14, 10)))
		body.WriteString("\n\n")
		if st.Exceeded {
			body.WriteString(warn.Render("You have exceeded your monthly threshold."))
		} else {
			body.WriteString(muted.Render("Press e to change the threshold."))
		}
	}
	b.WriteString(components.ContentCard("Monthly threshold", body.String(), cw))
	return b.String()
}
