package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/controller"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
)

type formKind int

const (
	formNone formKind = iota
	formAdd
	formConfirmDelete
	formThreshold
	formProfile
)

func (k formKind) title() string {
	switch k {
	case formAdd:
		return "Add expense"
	case formConfirmDelete:
		return "Confirm delete"
	case formThreshold:
		return "Monthly threshold"
	case formProfile:
		return "Edit profile"
	}
	return ""
}

// formValues backs every form field. App holds it by pointer because huh
// writes through the bound pointers while App is passed by value.
type formValues struct {
	Name     string
	Amount   string
	Category string
	Date     string

	Confirm bool

	Threshold string

	ProfileName    string
	ProfileEmail   string
	ChangePassword bool
	Password       string
}

func (v *formValues) draft() model.Draft {
	return model.Draft{Name: v.Name, Amount: v.Amount, Category: v.Category, Date: v.Date}
}

func newAddForm(v *formValues, today time.Time) *huh.Form {
	*v = formValues{Date: today.Format(model.DateLayout)}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Placeholder("Coffee").Value(&v.Name),
			huh.NewInput().Title("Amount").Placeholder("4.50").Value(&v.Amount),
			huh.NewInput().Title("Category").Placeholder("Food").Value(&v.Category),
			huh.NewInput().Title("Date").Description("YYYY-MM-DD").Value(&v.Date),
		),
	).WithShowHelp(true)
}

func newConfirmForm(v *formValues, c *controller.Confirmation) *huh.Form {
	v.Confirm = false
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(c.Prompt).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&v.Confirm),
		),
	)
}

func validAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("enter a number")
	}
	if d.IsNegative() {
		return errors.New("threshold cannot be negative")
	}
	return nil
}

func newThresholdForm(v *formValues, current model.Threshold) *huh.Form {
	v.Threshold = ""
	if current.IsSet() {
		v.Threshold = current.Amount.StringFixed(2)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Monthly spending threshold").
				Description("You are alerted once spending this month passes it.").
				Value(&v.Threshold).
				Validate(validAmount),
		),
	).WithShowHelp(true)
}

func newProfileForm(v *formValues, user model.UserInfo) *huh.Form {
	v.ProfileName = user.Name
	v.ProfileEmail = user.Email
	v.ChangePassword = false
	v.Password = ""
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.ProfileName),
			huh.NewInput().Title("Email").Value(&v.ProfileEmail),
			huh.NewConfirm().Title("Change password?").Value(&v.ChangePassword),
		),
		huh.NewGroup(
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&v.Password),
		).WithHideFunc(func() bool { return !v.ChangePassword }),
	).WithShowHelp(true)
}

func (a App) formWidth() int {
	return components.CardInnerWidth(min(a.contentWidth(), 72))
}

func (a App) openForm(kind formKind, f *huh.Form) (tea.Model, tea.Cmd) {
	a.form = f.WithWidth(a.formWidth())
	a.formKind = kind
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := a.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		a.form = f
	}
	switch a.form.State {
	case huh.StateCompleted:
		return a.closeForm(true)
	case huh.StateAborted:
		return a.closeForm(false)
	}
	return a, cmd
}

// closeForm dismisses the open form and, when submitted, starts its action.
func (a App) closeForm(submitted bool) (tea.Model, tea.Cmd) {
	kind := a.formKind
	a.form = nil
	a.formKind = formNone

	switch kind {
	case formAdd:
		if !submitted {
			return a, nil
		}
		a.busy = true
		return a, tea.Batch(addCmd(a.ctrl, a.vals.draft()), a.spinner.Tick)

	case formConfirmDelete:
		if !submitted || !a.vals.Confirm {
			a.ctrl.CancelDelete()
			a.ctrl.SetStatus(controller.Message{Text: "Delete cancelled."})
			return a, nil
		}
		a.busy = true
		return a, tea.Batch(deleteCmd(a.ctrl), a.spinner.Tick)

	case formThreshold:
		if !submitted || a.account == nil {
			return a, nil
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(a.vals.Threshold))
		if err != nil {
			a.ctrl.SetStatus(controller.Message{Text: "threshold must be a number", Kind: controller.Error})
			return a, nil
		}
		a.busy = true
		return a, tea.Batch(setThresholdCmd(a.account, a.ctrl.Owner(), amount), a.spinner.Tick)

	case formProfile:
		if !submitted || a.account == nil {
			return a, nil
		}
		p := model.ProfileUpdate{
			Username: a.ctrl.Owner(),
			Name:     strings.TrimSpace(a.vals.ProfileName),
			Email:    strings.TrimSpace(a.vals.ProfileEmail),
		}
		if a.vals.ChangePassword {
			pw := a.vals.Password
			p.Password = &pw
		}
		if err := p.Validate(); err != nil {
			_ = a.ctrl.Fail(err)
			return a, nil
		}
		a.busy = true
		return a, tea.Batch(updateProfileCmd(a.account, p), a.spinner.Tick)
	}
	return a, nil
}

func (a App) viewForm(cw int) string {
	w := min(cw, 72)
	return components.ContentCard(a.formKind.title(), a.form.View(), w)
}
