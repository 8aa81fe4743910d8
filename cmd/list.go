package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/ledger"
	"github.com/pennywise-app/pennywise/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagListSearch string
	flagListSort   string
	flagListAsc    bool
	flagListDesc   bool
	flagListLimit  int
	flagListJSON   bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List expenses, optionally filtered and sorted",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringVarP(&flagListSearch, "search", "f", "", "Only show expenses whose name contains this text")
	listCmd.Flags().StringVar(&flagListSort, "sort", "", "Sort by date, name or amount (default from config)")
	listCmd.Flags().BoolVar(&flagListAsc, "asc", false, "Sort ascending")
	listCmd.Flags().BoolVar(&flagListDesc, "desc", false, "Sort descending")
	listCmd.Flags().IntVarP(&flagListLimit, "limit", "l", 0, "Show at most this many rows (0 = all)")
	listCmd.Flags().BoolVar(&flagListJSON, "json", false, "Print JSON instead of a table")
	listCmd.MarkFlagsMutuallyExclusive("asc", "desc")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	view, err := applyListFlags(s)
	if err != nil {
		return err
	}
	total := len(s.ctrl.Store().All())
	if flagListLimit > 0 && len(view) > flagListLimit {
		view = view[:flagListLimit]
	}

	if flagListJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if view == nil {
			view = []model.Expense{}
		}
		return enc.Encode(view)
	}

	if len(view) == 0 {
		if flagListSearch != "" {
			fmt.Printf("\n  No expenses match %q.\n", flagListSearch)
		} else {
			fmt.Println("\n  No expenses recorded yet.")
		}
		return nil
	}

	srt := s.ctrl.Store().Sort()
	title := fmt.Sprintf("%d of %d expenses, by %s %s", len(view), total, srt.Field, srt.Order)
	t := expenseTable(title, view)
	sum := decimal.Zero
	for _, e := range view {
		sum = sum.Add(e.Amount)
	}
	t.Rows = append(t.Rows, cli.SeparatorRow, []string{"", "", "Shown", "", cli.FormatAmount(sum)})

	fmt.Println()
	fmt.Print(cli.RenderTable(t))
	return nil
}

// applyListFlags applies --sort, --asc/--desc and --search to the session's
// list and returns the visible rows.
func applyListFlags(s *session) ([]model.Expense, error) {
	if flagListSort != "" {
		f, err := ledger.ParseField(flagListSort)
		if err != nil {
			return nil, err
		}
		s.ctrl.SortBy(f)
	}
	order := s.ctrl.Store().Sort().Order
	if (flagListAsc && order != ledger.Ascending) || (flagListDesc && order != ledger.Descending) {
		s.ctrl.ToggleSort()
	}
	if flagListSearch != "" {
		return s.ctrl.SetSearch(flagListSearch), nil
	}
	return s.ctrl.View(), nil
}
