package cmd

import (
	"fmt"
	"log/slog"

	"github.com/pennywise-app/pennywise/internal/api"
	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/log"
	"github.com/pennywise-app/pennywise/internal/tui"
	"github.com/pennywise-app/pennywise/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// The terminal belongs to the TUI; logs go to a file.
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	fileLog, closer, err := log.OpenFile(config.LogPath(), level, log.ComponentTUI)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger = fileLog
	log.SetDefault(logger)

	ctx := cmd.Context()
	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	if !s.offline {
		if err := s.client.Ping(ctx); err != nil {
			if !api.IsTransport(err) || s.cache == nil {
				return err
			}
			if oerr := s.goOffline(); oerr != nil {
				return fmt.Errorf("%s (%w)", api.Message(err), oerr)
			}
			logger.Warn("server unreachable, starting offline", log.FieldError, err)
		}
	}

	theme.SetActive(cfg.Appearance.Theme)
	// Force TrueColor so background styling produces ANSI codes; lipgloss may
	// otherwise pick the Ascii profile.
	lipgloss.SetColorProfile(termenv.TrueColor)

	opts := tui.Options{
		Controller: s.ctrl,
		Config:     cfg,
		Logger:     logger,
		SaveConfig: saveViewSettings,
		Offline:    s.offline,
		FetchedAt:  s.fetchedAt,
	}
	if !s.offline {
		opts.Account = s.client
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// saveViewSettings persists the settings the TUI can change without
// writing flag overrides to disk.
func saveViewSettings(c config.Config) error {
	onDisk, err := config.Load()
	if err != nil {
		return err
	}
	onDisk.View = c.View
	onDisk.Appearance = c.Appearance
	return config.Save(onDisk)
}
