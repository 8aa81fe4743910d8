package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var flagDeleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete ID...",
	Aliases: []string{"rm"},
	Short:   "Delete expenses by id",
	Long:    "Delete one or more expenses. You are asked to confirm unless --yes is given.",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&flagDeleteYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.requireOnline(); err != nil {
		return err
	}

	var unknown []string
	seen := model.NewIDSet()
	for _, a := range args {
		id := model.ID(strings.TrimSpace(a))
		if seen.Has(id) {
			continue
		}
		seen.Add(id)
		if !s.ctrl.Toggle(id) {
			unknown = append(unknown, a)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("no expense with id %s", strings.Join(unknown, ", "))
	}

	conf := s.ctrl.RequestDelete()
	if conf == nil {
		return errors.New("nothing selected")
	}

	selected := model.NewIDSet(conf.IDs...)
	var rows []model.Expense
	for _, e := range s.ctrl.Store().All() {
		if selected.Has(e.ID) {
			rows = append(rows, e)
		}
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(expenseTable("", rows)))

	if !flagDeleteYes {
		ok := false
		err := huh.NewConfirm().
			Title(conf.Prompt).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&ok).
			Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !ok {
			s.ctrl.CancelDelete()
			fmt.Println("  Delete cancelled.")
			return nil
		}
	}

	if err := s.ctrl.ConfirmDelete(ctx); err != nil {
		return err
	}
	fmt.Println("  " + s.ctrl.Status().Text)
	return nil
}
