package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagAddName     string
	flagAddAmount   string
	flagAddCategory string
	flagAddDate     string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new expense",
	Long:  "Record a new expense. Missing fields are asked for interactively.",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&flagAddName, "name", "", "What the money was spent on")
	addCmd.Flags().StringVar(&flagAddAmount, "amount", "", "Amount, e.g. 12.50")
	addCmd.Flags().StringVar(&flagAddCategory, "category", "", "Category, e.g. Food")
	addCmd.Flags().StringVar(&flagAddDate, "date", "", "Date (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.requireOnline(); err != nil {
		return err
	}

	draft := model.Draft{
		Name:     flagAddName,
		Amount:   flagAddAmount,
		Category: flagAddCategory,
		Date:     flagAddDate,
	}
	if draft.Date == "" {
		draft.Date = time.Now().Format(model.DateLayout)
	}
	if draft.Name == "" || draft.Amount == "" || draft.Category == "" {
		if err := askDraft(&draft); err != nil {
			return err
		}
	}

	e, err := s.ctrl.Add(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Printf("  Added %q: %s in %s on %s", e.Name, cli.Amount(e.Amount), e.CategoryLabel(), e.DisplayDate())
	if !e.ID.IsZero() {
		fmt.Printf(" (id %s)", e.ID)
	}
	fmt.Println()
	return nil
}

// askDraft fills the missing draft fields from a form, checking each one as
// it is typed.
func askDraft(d *model.Draft) error {
	check := func(field string, set func(*model.Draft, string)) func(string) error {
		return func(v string) error {
			cp := *d
			set(&cp, v)
			var verr *model.ValidationError
			if errors.As(cp.Validate(), &verr) {
				for _, f := range verr.Fields {
					if f.Field == field {
						return errors.New(f.Message)
					}
				}
			}
			return nil
		}
	}
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Placeholder("Coffee").Value(&d.Name).
				Validate(check("name", func(d *model.Draft, v string) { d.Name = v })),
			huh.NewInput().Title("Amount").Placeholder("4.50").Value(&d.Amount).
				Validate(check("amount", func(d *model.Draft, v string) { d.Amount = v })),
			huh.NewInput().Title("Category").Placeholder("Food").Value(&d.Category).
				Validate(check("category", func(d *model.Draft, v string) { d.Category = v })),
			huh.NewInput().Title("Date").Description("YYYY-MM-DD").Value(&d.Date).
				Validate(check("date", func(d *model.Draft, v string) { d.Date = v })),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return errCancelled
	}
	return err
}

var errCancelled = errors.New("cancelled")
