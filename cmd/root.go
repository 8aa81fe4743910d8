// Package cmd implements the pennywise CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pennywise-app/pennywise/internal/api"
	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/controller"
	"github.com/pennywise-app/pennywise/internal/ledger"
	"github.com/pennywise-app/pennywise/internal/log"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagServer  string
	flagUser    string
	flagVerbose bool
	flagQuiet   bool
	flagOffline bool
	flagNoCache bool
)

// Populated by PersistentPreRunE.
var (
	cfg    config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:               "pennywise",
	Short:             "Personal expense tracker",
	Long:              "Record, search and total your expenses, and keep an eye on your monthly spending limit.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "  "+api.Message(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "Backend URL (overrides config and "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "Act as this user (overrides config and "+config.EnvUser+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log requests to stderr")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Read the cached snapshot instead of the server")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Neither read nor write the offline cache")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	c, err := config.Load()
	if err != nil {
		return err
	}
	if flagServer != "" {
		c.Server.BaseURL = flagServer
		// The flag wins over the environment too.
		if err := os.Unsetenv(config.EnvAPIURL); err != nil {
			return err
		}
	}
	if flagNoCache {
		c.Cache.Disabled = true
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", config.Path(), err)
	}
	cfg = c

	lc := log.DefaultConfig()
	switch {
	case flagVerbose:
		lc.Level = slog.LevelDebug
	case flagQuiet:
		lc.Level = slog.LevelError
	}
	logger = log.New(lc)
	log.SetDefault(logger)
	return nil
}

// currentUser resolves the acting user: --user, then env, then config.
func currentUser() (string, error) {
	if flagUser != "" {
		return flagUser, nil
	}
	return config.RequireUsername(cfg)
}

func newClient() (*api.Client, error) {
	return api.NewClient(config.BaseURL(cfg),
		api.WithTimeout(config.Timeout(cfg)),
		api.WithLogger(logger),
	)
}

// openCache returns nil when caching is disabled or the database can't be
// opened. The CLI works without it.
func openCache() *store.Cache {
	if cfg.Cache.Disabled {
		return nil
	}
	c, err := store.Open(config.CachePath())
	if err != nil {
		logger.Warn("offline cache unavailable", log.FieldError, err)
		return nil
	}
	return c
}

func sortFromConfig() ledger.Sort {
	srt := ledger.Sort{Field: ledger.ByDate, Order: ledger.Descending}
	if f, err := ledger.ParseField(cfg.View.SortField); err == nil {
		srt.Field = f
	}
	if o, err := ledger.ParseOrder(cfg.View.SortOrder); err == nil {
		srt.Order = o
	}
	return srt
}

// session bundles what expense commands need: the backend client, the
// ledger behind a controller, and the cache.
type session struct {
	owner  string
	client *api.Client
	cache  *store.Cache
	ctrl   *controller.Controller

	// offline is set when expenses come from the cache.
	offline   bool
	fetchedAt time.Time
}

// openSession prepares a session for the current user. With load set it
// fetches the expense list, falling back to the cached snapshot when the
// server can't be reached.
func openSession(ctx context.Context, load bool) (*session, error) {
	owner, err := currentUser()
	if err != nil {
		return nil, err
	}
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	s := &session{owner: owner, client: client, cache: openCache()}

	if flagOffline {
		if err := s.goOffline(); err != nil {
			s.Close()
			return nil, err
		}
	} else {
		s.ctrl = controller.New(s.newLedger(client, true), owner)
	}

	if !load {
		return s, nil
	}
	err = s.ctrl.Reload(ctx)
	if err != nil && !s.offline && api.IsTransport(err) && s.cache != nil {
		logger.Warn("server unreachable, using cached snapshot", log.FieldError, err)
		if oerr := s.goOffline(); oerr == nil {
			err = s.ctrl.Reload(ctx)
		}
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	if s.offline {
		fmt.Fprintf(os.Stderr, "  %s\n", offlineNotice(s.fetchedAt))
	}
	return s, nil
}

// newLedger builds the ledger over remote. With snapshot set every committed
// change is written to the cache.
func (s *session) newLedger(remote ledger.Remote, snapshot bool) *ledger.Store {
	opts := []ledger.Option{ledger.WithSort(sortFromConfig()), ledger.WithLogger(logger)}
	if s.cache != nil && snapshot {
		cache := s.cache
		opts = append(opts, ledger.WithChangeHook(func(owner string, expenses []model.Expense) {
			if err := cache.SaveSnapshot(owner, expenses, time.Now()); err != nil {
				logger.Warn("saving snapshot", log.FieldOwner, owner, log.FieldError, err)
			}
		}))
	}
	return ledger.New(remote, opts...)
}

func (s *session) goOffline() error {
	if s.cache == nil {
		return errors.New("offline mode needs the cache (remove --no-cache or cache.disabled)")
	}
	snap, err := s.cache.LoadSnapshot(s.owner)
	if errors.Is(err, store.ErrNoSnapshot) {
		return fmt.Errorf("no cached expenses for %s yet; connect once to create a snapshot", s.owner)
	}
	if err != nil {
		return err
	}
	s.offline = true
	s.fetchedAt = snap.FetchedAt
	s.ctrl = controller.New(s.newLedger(store.NewOffline(s.cache), false), s.owner)
	return nil
}

func (s *session) Close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
}

func offlineNotice(fetchedAt time.Time) string {
	return fmt.Sprintf("Offline: showing cached expenses from %s.", cli.FormatAge(fetchedAt, time.Now()))
}

// threshold fetches the owner's limit, caching it, and falls back to the
// cached value when offline or unreachable.
func (s *session) threshold(ctx context.Context) (model.Threshold, error) {
	if !s.offline {
		th, err := s.client.Threshold(ctx, s.owner)
		if err == nil {
			if s.cache != nil {
				if err := s.cache.SaveThreshold(s.owner, th, time.Now()); err != nil {
					logger.Warn("saving threshold", log.FieldOwner, s.owner, log.FieldError, err)
				}
			}
			return th, nil
		}
		if !api.IsTransport(err) || s.cache == nil {
			return model.Threshold{}, err
		}
	}
	if s.cache == nil {
		return model.Threshold{}, nil
	}
	th, err := s.cache.LoadThreshold(s.owner)
	if errors.Is(err, store.ErrNoSnapshot) {
		return model.Threshold{}, nil
	}
	return th, err
}

// requireOnline rejects commands that change data while offline.
func (s *session) requireOnline() error {
	if s.offline {
		return store.ErrOffline
	}
	return nil
}
