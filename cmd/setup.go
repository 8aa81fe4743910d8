package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	// Start from the file, not from flag overrides.
	c, err := config.Load()
	if err != nil {
		return err
	}

	timeout := strconv.Itoa(c.Server.TimeoutSec)
	sortField := orDefault(c.View.SortField, "date")
	sortOrder := orDefault(c.View.SortOrder, "desc")

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	fmt.Println()
	fmt.Println("  Welcome to pennywise!")
	fmt.Println()

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("Where the pennywise backend runs.").
				Value(&c.Server.BaseURL).
				Validate(func(s string) error {
					u, err := url.Parse(s)
					if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
						return errors.New("enter an http(s) URL")
					}
					return nil
				}),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&timeout).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(s); err != nil || n <= 0 {
						return errors.New("enter a positive number")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sort expenses by").
				Options(huh.NewOptions("date", "name", "amount")...).
				Value(&sortField),
			huh.NewSelect[string]().
				Title("Order").
				Options(huh.NewOption("Newest / largest first", "desc"), huh.NewOption("Oldest / smallest first", "asc")).
				Value(&sortOrder),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&c.Appearance.Theme),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return errCancelled
	}
	if err != nil {
		return err
	}

	c.Server.TimeoutSec, _ = strconv.Atoi(timeout)
	c.View.SortField = sortField
	c.View.SortOrder = sortOrder
	if err := c.Validate(); err != nil {
		return err
	}
	if err := config.Save(c); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cfg = c

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())

	client, err := newClient()
	if err == nil {
		if err := client.Ping(cmd.Context()); err != nil {
			fmt.Println("  Warning: the server did not answer. Check the URL or try again later.")
		}
	}
	if c.Account.Username == "" {
		fmt.Println("  Next: `pennywise signup` or `pennywise login`.")
	}
	fmt.Println("  Run `pennywise setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
