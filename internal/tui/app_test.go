package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/controller"
	"github.com/pennywise-app/pennywise/internal/ledger"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/tui/components"
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

type fakeRemote struct {
	mu       sync.Mutex
	expenses []model.Expense
	deletes  int
}

func (f *fakeRemote) FetchExpenses(context.Context, string) ([]model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Expense(nil), f.expenses...), nil
}

func (f *fakeRemote) AddExpense(context.Context, string, model.NewExpense) error { return nil }

func (f *fakeRemote) DeleteExpenses(_ context.Context, ids []model.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	set := model.NewIDSet(ids...)
	kept := f.expenses[:0]
	for _, e := range f.expenses {
		if !set.Has(e.ID) {
			kept = append(kept, e)
		}
	}
	f.expenses = kept
	return nil
}

func (f *fakeRemote) deleteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deletes
}

func newTestApp(t *testing.T) (App, *fakeRemote) {
	t.Helper()
	remote := &fakeRemote{expenses: []model.Expense{
		{ID: "1", Name: "Coffee", Amount: decimal.RequireFromString("4.50"), Category: "Food", Date: "2024-05-02"},
		{ID: "2", Name: "Rent", Amount: decimal.RequireFromString("1200"), Category: "Housing", Date: "2024-05-01"},
		{ID: "3", Name: "Cookies", Amount: decimal.RequireFromString("3"), Category: "Food", Date: "2024-04-28"},
	}}
	ctrl := controller.New(ledger.New(remote), "ann")
	app := NewApp(Options{
		Controller: ctrl,
		Config:     config.DefaultConfig(),
		SaveConfig: func(config.Config) error { return nil },
	})

	m, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.Update(reloadCmd(ctrl)())
	return m.(App), remote
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		m, _ := a.Update(keyMsg(k))
		a = m.(App)
	}
	return a
}

func TestDeleteWithoutSelectionOpensNothing(t *testing.T) {
	a, remote := newTestApp(t)

	a = press(t, a, "d")

	if a.form != nil {
		t.Fatal("confirmation opened with an empty selection")
	}
	st := a.ctrl.Status()
	if st.Kind != controller.Error || !strings.Contains(st.Text, "Select at least one") {
		t.Errorf("status = %+v", st)
	}
	if remote.deleteCalls() != 0 {
		t.Errorf("delete calls = %d, want 0", remote.deleteCalls())
	}
}

func TestSpaceTogglesSelectionUnderCursor(t *testing.T) {
	a, _ := newTestApp(t)

	// Default sort is date descending: Coffee, Rent, Cookies.
	a = press(t, a, " ", "j", " ")
	got := a.ctrl.Selected()
	if len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("selected = %v, want [1 2]", got)
	}

	a = press(t, a, " ")
	if got := a.ctrl.Selected(); len(got) != 1 || got[0] != "1" {
		t.Fatalf("selected after untoggle = %v, want [1]", got)
	}
}

func TestCancelledDeleteKeepsSelection(t *testing.T) {
	a, remote := newTestApp(t)

	a = press(t, a, " ", "d")
	if a.form == nil || a.formKind != formConfirmDelete {
		t.Fatal("expected the delete confirmation to open")
	}

	a = press(t, a, "esc")
	if a.form != nil {
		t.Fatal("form still open after esc")
	}
	if a.ctrl.Pending() != nil {
		t.Error("pending confirmation survived cancel")
	}
	if len(a.ctrl.Selected()) != 1 {
		t.Error("cancel dropped the selection")
	}
	if remote.deleteCalls() != 0 {
		t.Errorf("delete calls = %d, want 0", remote.deleteCalls())
	}
}

func TestConfirmedDeleteRemovesRows(t *testing.T) {
	a, remote := newTestApp(t)

	a = press(t, a, " ", "d")
	a.vals.Confirm = true
	m, cmd := a.closeForm(true)
	a = m.(App)
	if cmd == nil {
		t.Fatal("no command returned for a confirmed delete")
	}

	for _, msg := range runCmd(cmd) {
		if _, ok := msg.(expensesDeletedMsg); ok {
			m, _ = a.Update(msg)
			a = m.(App)
		}
	}

	if remote.deleteCalls() != 1 {
		t.Fatalf("delete calls = %d, want 1", remote.deleteCalls())
	}
	if a.ctrl.Store().Contains("1") {
		t.Error("deleted expense still listed")
	}
	if a.ctrl.Status().Text != "Deleted 1 expense." {
		t.Errorf("status = %q", a.ctrl.Status().Text)
	}
}

// runCmd executes cmd, expanding batches, and collects the messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestSearchFiltersWhileTyping(t *testing.T) {
	a, _ := newTestApp(t)

	a = press(t, a, "/", "c", "o")
	view := a.ctrl.View()
	if len(view) != 2 {
		t.Fatalf("view = %d rows, want Coffee and Cookies", len(view))
	}

	a = press(t, a, "esc")
	if a.exp.searching || len(a.ctrl.View()) != 3 {
		t.Fatalf("esc should close search and reset; searching=%v rows=%d", a.exp.searching, len(a.ctrl.View()))
	}
}

func TestSortKeysFlipOrder(t *testing.T) {
	a, _ := newTestApp(t)

	a = press(t, a, "o")
	if first := a.ctrl.View()[0].Name; first != "Cookies" {
		t.Errorf("after flip first = %q, want Cookies", first)
	}
	a = press(t, a, "O")
	if f := a.ctrl.Store().Sort().Field; f != ledger.ByName {
		t.Errorf("sort field = %v, want name", f)
	}
}

func TestViewShowsExpenses(t *testing.T) {
	a, _ := newTestApp(t)
	out := a.View()
	for _, want := range []string{"Expenses", "Coffee", "$1,200.00", "3 of 3 expenses"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSettingsCycleThemeSaves(t *testing.T) {
	defer theme.SetActive(theme.FlexokiDark.Name)

	a, _ := newTestApp(t)
	var saved []config.Config
	a.saveConfig = func(c config.Config) error {
		saved = append(saved, c)
		return nil
	}

	a = press(t, a, "5", "enter")
	if theme.Active.Name != theme.CatppuccinMocha.Name {
		t.Errorf("active theme = %q", theme.Active.Name)
	}
	if len(saved) != 1 || saved[0].Appearance.Theme != theme.CatppuccinMocha.Name {
		t.Errorf("saved = %+v", saved)
	}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := len(tab.Name) + 2
			if i != active {
				w += 3 // "[n]" hint
			}
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab %d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
	}
}
