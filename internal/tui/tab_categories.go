package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/tui/components"
	"github.com/pennywise-app/pennywise/internal/report"
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const chartMonths = 6

func (a App) renderCategoriesTab(cw int) string {
	t := theme.Active
	totals := a.ctrl.Totals()
	all := a.ctrl.Store().All()
	now := time.Now()
	monthSpend := report.MonthSpend(all, now)

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total spent", Value: cli.FormatCompactAmount(totals.Grand)},
		{Label: "Expenses", Value: cli.FormatNumber(int64(totals.Count))},
		{Label: "Categories", Value: cli.FormatNumber(int64(len(totals.Categories)))},
		{Label: "This month", Value: cli.FormatCompactAmount(monthSpend), Note: cli.FormatMonth(now)},
	}, cw))
	b.WriteString("\n")

	if totals.Empty() {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		msg := "No expenses recorded yet."
		if !totals.Loaded {
			msg = "Expenses have not been loaded."
		}
		b.WriteString(components.ContentCard("By category", muted.Render(msg), cw))
		return b.String()
	}

	half := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("By category", a.categoryRows(components.CardInnerWidth(half[0])), half[0]),
		components.ContentCard("Last 6 months", a.monthChart(components.CardInnerWidth(half[1])), half[1]),
	}))
	return b.String()
}

func (a App) categoryRows(innerW int) string {
	t := theme.Active
	totals := a.ctrl.Totals()

	name := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	amount := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	nameW := min(max(innerW/3, 8), 20)
	amountW := 12
	pctW := 6
	barW := max(innerW-nameW-amountW-pctW-3, 4)

	lines := make([]string, 0, len(totals.Categories))
	for _, c := range totals.Categories {
		lines = append(lines,
			name.Render(fmt.Sprintf("%-*s", nameW, truncStr(c.Category, nameW)))+space+
				components.ShareBar(c.SharePercent/100, barW)+space+
				amount.Render(fmt.Sprintf("%*s", amountW, cli.FormatAmount(c.Amount)))+space+
				muted.Render(fmt.Sprintf("%*.0f%%", pctW-1, c.SharePercent)))
	}
	return strings.Join(lines, "\n")
}

func (a App) monthChart(innerW int) string {
	now := time.Now()
	months := report.AggregateMonths(a.ctrl.Store().All(), now.AddDate(0, -(chartMonths-1), 0), now)

	// AggregateMonths is newest first; the chart reads left to right.
	values := make([]float64, len(months))
	labels := make([]string, len(months))
	for i, m := range months {
		j := len(months) - 1 - i
		values[j] = m.Amount.InexactFloat64()
		labels[j] = m.Month.Format("Jan")
	}

	limit := 0.0
	if a.threshold.IsSet() {
		limit = a.threshold.Amount.InexactFloat64()
	}
	colW := max(innerW/max(len(values), 1), 4)
	return components.ColumnChart(values, labels, limit, colW, 6)
}
