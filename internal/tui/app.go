// Package tui provides the interactive Bubble Tea interface of pennywise.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/api"
	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/controller"
	"github.com/pennywise-app/pennywise/internal/log"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/tui/components"
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Account is the part of the backend behind the Alerts and Profile tabs.
// *api.Client satisfies it.
type Account interface {
	UserInfo(ctx context.Context, owner string) (model.UserInfo, error)
	UpdateProfile(ctx context.Context, p model.ProfileUpdate) (string, error)
	Threshold(ctx context.Context, owner string) (model.Threshold, error)
	SetThreshold(ctx context.Context, owner string, amount decimal.Decimal) (string, error)
}

// Options configures NewApp.
type Options struct {
	Controller *controller.Controller
	// Account may be nil in offline mode.
	Account Account
	Config  config.Config
	Logger  *log.Logger
	// SaveConfig persists settings changes. Defaults to config.Save.
	SaveConfig func(config.Config) error
	// Offline marks data served from the snapshot cache.
	Offline   bool
	FetchedAt time.Time
}

// Tab indexes, in components.Tabs order.
const (
	tabExpenses = iota
	tabCategories
	tabAlerts
	tabProfile
	tabSettings
)

type expensesLoadedMsg struct{ err error }

type accountLoadedMsg struct {
	user      model.UserInfo
	threshold model.Threshold
	err       error
}

type expenseAddedMsg struct{ err error }

type expensesDeletedMsg struct{ err error }

type thresholdSavedMsg struct {
	message string
	amount  decimal.Decimal
	err     error
}

type profileSavedMsg struct {
	message string
	user    model.UserInfo
	err     error
}

// App is the root Bubble Tea model.
type App struct {
	ctrl       *controller.Controller
	account    Account
	cfg        config.Config
	saveConfig func(config.Config) error
	log        *log.Logger
	offline    bool
	fetchedAt  time.Time

	// Data
	loaded     bool
	busy       bool
	user       model.UserInfo
	threshold  model.Threshold
	accountErr string

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model

	exp      expensesState
	settings settingsState

	// Modal huh form; nil when none is open.
	form     *huh.Form
	formKind formKind
	vals     *formValues
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 160
	minContentHeight = 5
)

// NewApp creates the TUI model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	save := opts.SaveConfig
	if save == nil {
		save = config.Save
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	return App{
		ctrl:       opts.Controller,
		account:    opts.Account,
		cfg:        opts.Config,
		saveConfig: save,
		log:        logger.WithComponent(log.ComponentTUI),
		offline:    opts.Offline,
		fetchedAt:  opts.FetchedAt,
		spinner:    sp,
		vals:       &formValues{},
		exp:        newExpensesState(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		reloadCmd(a.ctrl),
	}
	if a.account != nil {
		cmds = append(cmds, fetchAccountCmd(a.account, a.ctrl.Owner()))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(a.formWidth())
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case spinner.TickMsg:
		if !a.loaded || a.busy {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case expensesLoadedMsg:
		a.loaded = true
		a.busy = false
		if msg.err != nil {
			a.log.Warn("loading expenses", log.FieldError, msg.err)
		}
		a.exp.clamp(len(a.ctrl.View()))
		return a, nil

	case accountLoadedMsg:
		if msg.err != nil {
			a.accountErr = api.Message(msg.err)
			a.log.Warn("loading account", log.FieldError, msg.err)
			return a, nil
		}
		a.accountErr = ""
		a.user = msg.user
		a.threshold = msg.threshold
		return a, nil

	case expenseAddedMsg:
		a.busy = false
		a.exp.clamp(len(a.ctrl.View()))
		return a, nil

	case expensesDeletedMsg:
		a.busy = false
		a.exp.clamp(len(a.ctrl.View()))
		return a, nil

	case thresholdSavedMsg:
		a.busy = false
		if msg.err != nil {
			_ = a.ctrl.Fail(msg.err)
			return a, nil
		}
		amt := msg.amount
		a.threshold = model.Threshold{Amount: &amt}
		a.ctrl.SetStatus(controller.Message{Text: okText(msg.message, "Threshold saved.")})
		return a, nil

	case profileSavedMsg:
		a.busy = false
		if msg.err != nil {
			_ = a.ctrl.Fail(msg.err)
			return a, nil
		}
		a.user = msg.user
		a.ctrl.SetStatus(controller.Message{Text: okText(msg.message, "Profile updated.")})
		return a, nil
	}

	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// A modal form gets every key; esc closes it.
	if a.form != nil {
		if key == "esc" {
			return a.closeForm(false)
		}
		return a.updateForm(msg)
	}

	if a.activeTab == tabExpenses && a.exp.searching {
		return a.updateSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case tabExpenses:
		if m, cmd, ok := a.updateExpensesKey(key); ok {
			return m, cmd
		}
	case tabAlerts:
		if m, cmd, ok := a.updateAlertsKey(key); ok {
			return m, cmd
		}
	case tabProfile:
		if m, cmd, ok := a.updateProfileKey(key); ok {
			return m, cmd
		}
	case tabSettings:
		if m, cmd, ok := a.updateSettingsKey(key); ok {
			return m, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if idx := components.TabIdxByKey(key); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.showHelp || a.form != nil {
		return a, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabExpenses {
			a.exp.move(-1, len(a.ctrl.View()))
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabExpenses {
			a.exp.move(1, len(a.ctrl.View()))
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

// tabAtX returns the tab under column x, or -1. It must agree with
// components.RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1
	}
	return -1
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  pennywise needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logo.Render("$ pennywise"))
	b.WriteString(muted.Render(" · " + a.ctrl.Owner()))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(muted.Render(" Loading expenses..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

type binding struct{ key, desc string }

var helpSections = []struct {
	title    string
	bindings []binding
}{
	{"Navigation", []binding{
		{"1-5", "Jump to tab"},
		{"← →", "Previous / next tab"},
		{"j k", "Move cursor"},
		{"g G", "First / last expense"},
	}},
	{"Expenses", []binding{
		{"/", "Search by name"},
		{"o", "Flip sort order"},
		{"O", "Change sort key"},
		{"esc", "Clear search"},
		{"space", "Select / unselect"},
		{"A  x", "Select visible / clear"},
		{"a", "Add expense"},
		{"d", "Delete selected"},
		{"r", "Reload"},
	}},
	{"Other", []binding{
		{"e", "Edit threshold / profile"},
		{"enter", "Change setting"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}},
}

func (a App) viewHelp() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	section := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(title.Render("Keyboard shortcuts"))
	for _, s := range helpSections {
		b.WriteString("\n\n")
		b.WriteString(section.Render(s.title))
		for _, bind := range s.bindings {
			b.WriteString("\n  ")
			b.WriteString(keyStyle.Render(fmt.Sprintf("%-8s", bind.key)))
			b.WriteString(desc.Render(bind.desc))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(desc.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)
	status := a.ctrl.Status()
	statusBar := components.RenderStatusBar(w, status.Text, status.Kind == controller.Error, a.statusContext())

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.form != nil:
		content = a.viewForm(cw)
	case a.activeTab == tabExpenses:
		content = a.renderExpensesTab(cw, contentH)
	case a.activeTab == tabCategories:
		content = a.renderCategoriesTab(cw)
	case a.activeTab == tabAlerts:
		content = a.renderAlertsTab(cw)
	case a.activeTab == tabProfile:
		content = a.renderProfileTab(cw)
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	out := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, out,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusContext() string {
	parts := []string{a.ctrl.Owner()}
	if a.busy {
		parts = append(parts, a.spinner.View()+" working")
	}
	if a.offline {
		age := "offline"
		if !a.fetchedAt.IsZero() {
			age = "offline, cached " + a.fetchedAt.Local().Format("Jan 2 15:04")
		}
		parts = append(parts, age)
	}
	return strings.Join(parts, " · ")
}

// ─── Commands ───────────────────────────────────────────────────

func reloadCmd(ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return expensesLoadedMsg{err: ctrl.Reload(context.Background())}
	}
}

// fetchAccountCmd loads the profile and threshold in parallel.
func fetchAccountCmd(acct Account, owner string) tea.Cmd {
	return func() tea.Msg {
		var msg accountLoadedMsg
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			var err error
			msg.user, err = acct.UserInfo(ctx, owner)
			return err
		})
		g.Go(func() error {
			var err error
			msg.threshold, err = acct.Threshold(ctx, owner)
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

func addCmd(ctrl *controller.Controller, d model.Draft) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.Add(context.Background(), d)
		return expenseAddedMsg{err: err}
	}
}

func deleteCmd(ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return expensesDeletedMsg{err: ctrl.ConfirmDelete(context.Background())}
	}
}

func setThresholdCmd(acct Account, owner string, amount decimal.Decimal) tea.Cmd {
	return func() tea.Msg {
		msg, err := acct.SetThreshold(context.Background(), owner, amount)
		return thresholdSavedMsg{message: msg, amount: amount, err: err}
	}
}

func updateProfileCmd(acct Account, p model.ProfileUpdate) tea.Cmd {
	return func() tea.Msg {
		msg, err := acct.UpdateProfile(context.Background(), p)
		user := model.UserInfo{Username: p.Username, Name: p.Name, Email: p.Email}
		return profileSavedMsg{message: msg, user: user, err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func okText(serverMsg, fallback string) string {
	if strings.TrimSpace(serverMsg) != "" {
		return serverMsg
	}
	return fallback
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads every line to w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
