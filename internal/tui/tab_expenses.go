package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/controller"
	"github.com/pennywise-app/pennywise/internal/ledger"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type expensesState struct {
	cursor      int
	offset      int
	searching   bool
	searchInput textinput.Model
}

func newExpensesState() expensesState {
	ti := textinput.New()
	ti.Placeholder = "search by name"
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Width = 40
	return expensesState{searchInput: ti}
}

func (s *expensesState) clamp(n int) {
	s.cursor = min(s.cursor, n-1)
	s.cursor = max(s.cursor, 0)
	s.offset = min(s.offset, s.cursor)
}

func (s *expensesState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

// scroll keeps the cursor inside a window of rows lines.
func (s *expensesState) scroll(rows int) {
	if rows < 1 {
		return
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+rows {
		s.offset = s.cursor - rows + 1
	}
}

// current returns the expense under the cursor.
func (a App) current() (model.Expense, bool) {
	view := a.ctrl.View()
	if a.exp.cursor < 0 || a.exp.cursor >= len(view) {
		return model.Expense{}, false
	}
	return view[a.exp.cursor], true
}

func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.exp.searching = false
		a.exp.searchInput.Blur()
		return a, nil
	case "esc":
		a.exp.searching = false
		a.exp.searchInput.Blur()
		a.exp.searchInput.SetValue("")
		a.ctrl.Reset()
		a.exp.cursor, a.exp.offset = 0, 0
		return a, nil
	}

	var cmd tea.Cmd
	a.exp.searchInput, cmd = a.exp.searchInput.Update(msg)
	a.ctrl.SetSearch(a.exp.searchInput.Value())
	a.exp.cursor, a.exp.offset = 0, 0
	return a, cmd
}

func (a App) updateExpensesKey(key string) (tea.Model, tea.Cmd, bool) {
	n := len(a.ctrl.View())

	switch key {
	case "/":
		a.exp.searching = true
		a.exp.searchInput.SetValue(a.ctrl.Store().Query())
		a.exp.searchInput.CursorEnd()
		return a, a.exp.searchInput.Focus(), true
	case "esc":
		a.ctrl.Reset()
		a.exp.searchInput.SetValue("")
		a.exp.cursor, a.exp.offset = 0, 0
	case "o":
		a.ctrl.ToggleSort()
	case "O":
		a.ctrl.SortBy(a.ctrl.Store().Sort().Field.Next())
	case "j", "down":
		a.exp.move(1, n)
	case "k", "up":
		a.exp.move(-1, n)
	case "pgdown", "ctrl+d":
		a.exp.move(10, n)
	case "pgup", "ctrl+u":
		a.exp.move(-10, n)
	case "g", "home":
		a.exp.cursor = 0
	case "G", "end":
		a.exp.cursor = max(n-1, 0)
	case " ":
		if e, ok := a.current(); ok {
			a.ctrl.Toggle(e.ID)
		}
	case "A":
		count := a.ctrl.SelectVisible()
		a.ctrl.SetStatus(controller.Message{Text: fmt.Sprintf("%d selected.", count)})
	case "x":
		a.ctrl.ClearSelection()
		a.ctrl.SetStatus(controller.Message{Text: "Selection cleared."})
	case "a":
		if a.offline {
			a.ctrl.SetStatus(controller.Message{Text: "Offline: adding is disabled.", Kind: controller.Error})
			return a, nil, true
		}
		m, cmd := a.openForm(formAdd, newAddForm(a.vals, time.Now()))
		return m, cmd, true
	case "d":
		conf := a.ctrl.RequestDelete()
		if conf == nil {
			a.ctrl.SetStatus(controller.Message{Text: "Select at least one expense to delete.", Kind: controller.Error})
			return a, nil, true
		}
		m, cmd := a.openForm(formConfirmDelete, newConfirmForm(a.vals, conf))
		return m, cmd, true
	case "r":
		if a.busy {
			return a, nil, true
		}
		a.busy = true
		return a, tea.Batch(reloadCmd(a.ctrl), a.spinner.Tick), true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func sortLabel(s ledger.Sort) string {
	arrow := "↓"
	if s.Order == ledger.Ascending {
		arrow = "↑"
	}
	return s.Field.String() + " " + arrow
}

func (a App) renderExpensesTab(cw, h int) string {
	t := theme.Active
	store := a.ctrl.Store()
	view := a.ctrl.View()
	total := len(store.All())

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Background).Bold(true)

	var b strings.Builder

	// Summary line
	summary := fmt.Sprintf(" %d of %d expenses · sorted by %s", len(view), total, sortLabel(store.Sort()))
	b.WriteString(muted.Render(summary))
	if sel := len(a.ctrl.Selected()); sel > 0 {
		b.WriteString(accent.Render(fmt.Sprintf(" · %d selected", sel)))
	}
	b.WriteString("\n")

	switch {
	case a.exp.searching:
		b.WriteString(" " + a.exp.searchInput.View())
	case store.Query() != "":
		b.WriteString(muted.Render(fmt.Sprintf(" search: %q  (esc to clear)", store.Query())))
	}
	b.WriteString("\n")

	switch {
	case total == 0:
		b.WriteString(muted.Render("\n  No expenses yet. Press a to add one."))
		return b.String()
	case len(view) == 0:
		b.WriteString(muted.Render("\n  No expenses match the search."))
		return b.String()
	}

	// Columns: mark, date, name, category, amount
	amountW := 12
	dateW := 10
	catW := min(max(cw/5, 10), 20)
	nameW := max(cw-amountW-dateW-catW-4-5-2, 10)

	header := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Background).Bold(true)
	b.WriteString(header.Render(fmt.Sprintf(" %-4s%-*s %-*s %-*s %*s",
		"", dateW, "Date", nameW, "Name", catW, "Category", amountW, "Amount")))
	b.WriteString("\n")

	rows := max(h-4, 1)
	st := a.exp
	st.clamp(len(view))
	st.scroll(rows)

	end := min(st.offset+rows, len(view))
	for i := st.offset; i < end; i++ {
		e := view[i]
		mark := "[ ]"
		if a.ctrl.IsSelected(e.ID) {
			mark = "[x]"
		}
		line := fmt.Sprintf(" %-4s%-*s %-*s %-*s %*s",
			mark,
			dateW, truncStr(e.DisplayDate(), dateW),
			nameW, truncStr(e.Name, nameW),
			catW, truncStr(e.CategoryLabel(), catW),
			amountW, cli.FormatAmount(e.Amount))

		style := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Background)
		if a.ctrl.IsSelected(e.ID) {
			style = style.Foreground(t.Selected)
		}
		if i == st.cursor {
			style = style.Background(t.SurfaceHover).Bold(true)
		}
		b.WriteString(style.Render(line))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
