package cmd

import (
	"fmt"
	"time"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/controller"
	"github.com/pennywise-app/pennywise/internal/ledger"
	"github.com/pennywise-app/pennywise/internal/log"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/report"

	"github.com/spf13/cobra"
)

var flagSummaryRecent int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals, this month's spend against the limit, and recent expenses",
	RunE:  runSummary,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, summaryCmd} {
		c.Flags().IntVar(&flagSummaryRecent, "recent", 5, "Number of recent expenses to show")
	}
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
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

	all := s.ctrl.Store().All()
	totals := s.ctrl.Totals()
	now := time.Now()
	month := report.MonthStart(now)
	status := report.ThresholdStatus(th, month, report.MonthSpend(all, month))

	fmt.Println()
	fmt.Println(cli.RenderTitle("PENNYWISE  " + s.owner))
	fmt.Println()

	if totals.Empty() {
		fmt.Println("  No expenses recorded yet.")
		fmt.Println("  Add one with `pennywise add`.")
		return nil
	}

	rows := [][]string{
		{"Expenses", cli.FormatNumber(int64(totals.Count))},
		{"Total", cli.FormatAmount(totals.Grand)},
		{"Categories", cli.FormatNumber(int64(len(totals.Categories)))},
		cli.SeparatorRow,
		{cli.FormatMonth(month), cli.FormatAmount(status.Spent)},
	}
	rows = append(rows, thresholdRows(status)...)
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Metric", "Value"}, Rows: rows}))

	if status.Limit != nil {
		fmt.Println()
		fmt.Println("  " + cli.RenderSpendBar(status.Spent, *status.Limit, 30))
		if status.Exceeded {
			fmt.Println("  " + cli.Warn("Monthly limit exceeded."))
		}
	}

	if flagSummaryRecent > 0 {
		fmt.Println()
		recent := newestFirst(s.ctrl)
		recent = recent[:min(flagSummaryRecent, len(recent))]
		fmt.Print(cli.RenderTable(expenseTable("Recent", recent)))
	}
	return nil
}

func thresholdRows(st model.ThresholdStatus) [][]string {
	if st.Limit == nil {
		return [][]string{{"Monthly limit", cli.Muted("not set")}}
	}
	remaining := cli.FormatAmount(st.Remaining)
	if st.Exceeded {
		remaining = cli.Error("-" + cli.FormatAmount(st.Spent.Sub(*st.Limit)))
	}
	return [][]string{
		{"Monthly limit", cli.FormatAmount(*st.Limit)},
		{"Remaining", remaining},
		{"Used", cli.FormatPercent(st.UsedPercent)},
	}
}

// newestFirst switches the list to date descending and returns it.
func newestFirst(ctrl *controller.Controller) []model.Expense {
	ctrl.Reset()
	if ctrl.Store().Sort().Field != ledger.ByDate {
		ctrl.SortBy(ledger.ByDate)
	}
	if ctrl.Store().Sort().Order != ledger.Descending {
		ctrl.ToggleSort()
	}
	return ctrl.View()
}

func expenseTable(title string, expenses []model.Expense) cli.Table {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{e.ID.String(), e.DisplayDate(), e.Name, e.CategoryLabel(), cli.FormatAmount(e.Amount)})
	}
	return cli.Table{
		Title:    title,
		Headers:  []string{"ID", "Date", "Name", "Category", "Amount"},
		Rows:     rows,
		LeftCols: 4,
	}
}
