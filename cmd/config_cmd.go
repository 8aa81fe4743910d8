package cmd

import (
	"fmt"
	"os"

	"github.com/pennywise-app/pennywise/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Base URL: %s%s\n", config.BaseURL(cfg), envNote(config.EnvAPIURL))
	fmt.Printf("    Timeout:  %s\n", config.Timeout(cfg))
	fmt.Println()

	fmt.Println("  [Account]")
	if u := config.Username(cfg); u != "" {
		fmt.Printf("    Username: %s%s\n", u, envNote(config.EnvUser))
	} else {
		fmt.Println("    Username: not signed in")
	}
	fmt.Println()

	fmt.Println("  [View]")
	srt := sortFromConfig()
	fmt.Printf("    Sort: %s %s\n", srt.Field, srt.Order)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Interval: %s\n", config.PollInterval(cfg))
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	if config.AMQPURL(cfg) != "" {
		fmt.Printf("    Alerts:   %s -> %s%s\n", cfg.Daemon.AMQPExchange, cfg.Daemon.AMQPQueue, envNote(config.EnvAMQPURL))
	} else {
		fmt.Println("    Alerts:   not configured")
	}
	fmt.Println()

	fmt.Println("  [Cache]")
	if cfg.Cache.Disabled {
		fmt.Println("    Disabled")
	} else {
		fmt.Printf("    Path: %s\n", config.CachePath())
	}
	fmt.Println()

	fmt.Println("  Run `pennywise setup` to reconfigure.")
	return nil
}

func envNote(name string) string {
	if os.Getenv(name) != "" {
		return "  (from " + name + ")"
	}
	return ""
}
