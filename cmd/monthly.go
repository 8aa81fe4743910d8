package cmd

import (
	"fmt"
	"time"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/log"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/report"

	"github.com/spf13/cobra"
)

var flagMonths int

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Month-by-month spending against the limit",
	Args:  cobra.NoArgs,
	RunE:  runMonthly,
}

func init() {
	monthlyCmd.Flags().IntVarP(&flagMonths, "months", "m", 6, "Number of months to show")
	rootCmd.AddCommand(monthlyCmd)
}

func runMonthly(cmd *cobra.Command, _ []string) error {
	if flagMonths < 1 {
		return fmt.Errorf("--months must be at least 1")
	}
	ctx := cmd.Context()
	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	th, err := s.threshold(ctx)
	if err != nil {
		logger.Warn("threshold unavailable", log.FieldError, err)
	}

	now := time.Now()
	until := report.MonthStart(now)
	since := until.AddDate(0, 1-flagMonths, 0)
	months := report.AggregateMonths(s.ctrl.Store().All(), since, until)

	rows := make([][]string, 0, len(months))
	for i, m := range months {
		delta := ""
		if i+1 < len(months) {
			delta = cli.FormatDelta(m.Amount.Sub(months[i+1].Amount))
		}
		rows = append(rows, []string{
			cli.FormatMonth(m.Month),
			cli.FormatNumber(int64(m.Count)),
			cli.FormatAmount(m.Amount),
			delta,
			limitCell(th, m),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Last %d months", flagMonths),
		Headers: []string{"Month", "Count", "Spent", "vs prev", "Limit"},
		Rows:    rows,
	}))

	// Oldest first reads left to right.
	values := make([]float64, len(months))
	for i, m := range months {
		values[len(months)-1-i] = m.Amount.InexactFloat64()
	}
	fmt.Printf("\n  Trend  %s\n", cli.RenderSparkline(values))
	return nil
}

func limitCell(th model.Threshold, m model.MonthlyStats) string {
	if !th.IsSet() {
		return cli.Muted("-")
	}
	st := report.ThresholdStatus(th, m.Month, m.Amount)
	if st.Exceeded {
		return cli.Error("over " + cli.FormatPercent(st.UsedPercent))
	}
	return cli.FormatPercent(st.UsedPercent)
}
