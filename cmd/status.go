package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/pennywise-app/pennywise/internal/api"
	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/store"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server reachability, the signed-in user and the offline cache",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	owner, _ := currentUser()

	var (
		pingErr error
		latency time.Duration
		user    model.UserInfo
		userErr error
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		start := time.Now()
		pingErr = client.Ping(ctx)
		latency = time.Since(start)
		return nil
	})
	if owner != "" {
		g.Go(func() error {
			user, userErr = client.UserInfo(ctx, owner)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Println()
	fmt.Println(cli.RenderTitle("PENNYWISE STATUS"))
	fmt.Println()

	server := fmt.Sprintf("reachable (%dms)", latency.Milliseconds())
	if pingErr != nil {
		server = cli.Error(api.Message(pingErr))
	}
	rows := [][]string{
		{"Server", client.BaseURL()},
		{"", server},
		cli.SeparatorRow,
	}

	switch {
	case owner == "":
		rows = append(rows, []string{"User", cli.Muted("not signed in")})
	case userErr != nil:
		rows = append(rows, []string{"User", owner + "  " + cli.Warn(api.Message(userErr))})
	default:
		rows = append(rows, []string{"User", fmt.Sprintf("%s (%s, %s)", owner, user.Name, user.Email)})
	}
	rows = append(rows, cli.SeparatorRow)
	rows = append(rows, cacheRows(owner)...)

	fmt.Print(cli.RenderTable(cli.Table{Rows: rows, LeftCols: 2}))
	return nil
}

func cacheRows(owner string) [][]string {
	if cfg.Cache.Disabled {
		return [][]string{{"Cache", cli.Muted("disabled")}}
	}
	c := openCache()
	if c == nil {
		return [][]string{{"Cache", cli.Warn("unavailable")}}
	}
	defer c.Close()

	rows := [][]string{{"Cache", config.CachePath()}}
	if owners, err := c.Owners(); err == nil {
		rows = append(rows, []string{"", fmt.Sprintf("%d users cached", len(owners))})
	}
	if owner == "" {
		return rows
	}
	snap, err := c.LoadSnapshot(owner)
	switch {
	case errors.Is(err, store.ErrNoSnapshot):
		rows = append(rows, []string{"Snapshot", cli.Muted("none yet")})
	case err != nil:
		rows = append(rows, []string{"Snapshot", cli.Error(err.Error())})
	default:
		rows = append(rows, []string{"Snapshot", fmt.Sprintf("%d expenses, %s",
			len(snap.Expenses), cli.FormatAge(snap.FetchedAt, time.Now()))})
	}
	return rows
}
