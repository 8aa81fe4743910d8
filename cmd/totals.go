package cmd

import (
	"fmt"

	"github.com/pennywise-app/pennywise/internal/cli"

	"github.com/spf13/cobra"
)

var totalsCmd = &cobra.Command{
	Use:     "totals",
	Aliases: []string{"categories"},
	Short:   "Spending per category",
	Args:    cobra.NoArgs,
	RunE:    runTotals,
}

func init() {
	rootCmd.AddCommand(totalsCmd)
}

func runTotals(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	totals := s.ctrl.Totals()
	if totals.Empty() {
		fmt.Println("\n  No expenses recorded yet.")
		return nil
	}

	peak := totals.Categories[0].Amount.InexactFloat64()
	for _, c := range totals.Categories[1:] {
		peak = max(peak, c.Amount.InexactFloat64())
	}

	rows := make([][]string, 0, len(totals.Categories)+2)
	for _, c := range totals.Categories {
		rows = append(rows, []string{
			c.Category,
			cli.FormatNumber(int64(c.Count)),
			cli.FormatAmount(c.Amount),
			cli.FormatPercent(c.SharePercent),
			cli.RenderHorizontalBar(c.Amount.InexactFloat64(), peak, 20),
		})
	}
	rows = append(rows, cli.SeparatorRow, []string{
		"Total", cli.FormatNumber(int64(totals.Count)), cli.FormatAmount(totals.Grand), "100.0%", "",
	})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Spending by Category",
		Headers: []string{"Category", "Count", "Amount", "Share", ""},
		Rows:    rows,
	}))
	return nil
}
