// Package config loads and saves the pennywise configuration file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the file.
const (
	EnvAPIURL  = "PENNYWISE_API_URL"
	EnvUser    = "PENNYWISE_USER"
	EnvAMQPURL = "PENNYWISE_AMQP_URL"
)

// ErrNotSignedIn is returned when a command needs a user and none is set.
var ErrNotSignedIn = errors.New("not signed in (run `pennywise login` or pass --user)")

// Config holds all pennywise configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Account    AccountConfig    `toml:"account"`
	View       ViewConfig       `toml:"view"`
	Appearance AppearanceConfig `toml:"appearance"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Cache      CacheConfig      `toml:"cache"`
}

// ServerConfig points at the backend.
type ServerConfig struct {
	BaseURL    string `toml:"base_url"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// AccountConfig remembers who is signed in.
type AccountConfig struct {
	Username string `toml:"username,omitempty"`
}

// ViewConfig holds the initial expense list sort.
type ViewConfig struct {
	SortField string `toml:"sort_field"`
	SortOrder string `toml:"sort_order"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DaemonConfig configures the background threshold monitor.
type DaemonConfig struct {
	IntervalSec  int    `toml:"interval_sec"`
	Addr         string `toml:"addr"`
	AMQPURL      string `toml:"amqp_url,omitempty"`
	AMQPExchange string `toml:"amqp_exchange,omitempty"`
	AMQPQueue    string `toml:"amqp_queue,omitempty"`
}

// CacheConfig controls the offline snapshot cache.
type CacheConfig struct {
	Disabled bool `toml:"disabled"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:    "http://127.0.0.1:5000",
			TimeoutSec: 10,
		},
		View: ViewConfig{
			SortField: "date",
			SortOrder: "desc",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Daemon: DaemonConfig{
			IntervalSec:  60,
			Addr:         "127.0.0.1:8787",
			AMQPExchange: "pennywise",
			AMQPQueue:    "pennywise.alerts",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pennywise")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pennywise")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "pennywise")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "pennywise")
}

// CachePath returns the snapshot database path.
func CachePath() string {
	return filepath.Join(CacheDir(), "cache.db")
}

// LogPath returns the log file used by the TUI and the daemon.
func LogPath() string {
	return filepath.Join(CacheDir(), "pennywise.log")
}

// LoadDotEnv loads a .env file from the working directory, if present.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := os.MkdirAll(Dir(), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Validate checks values that would otherwise fail later and obscurely.
func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(BaseURL(c))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.base_url %q is not an http(s) URL", BaseURL(c)))
	}
	if c.Server.TimeoutSec < 0 {
		errs = append(errs, fmt.Errorf("server.timeout_sec must not be negative"))
	}
	switch strings.ToLower(c.View.SortField) {
	case "", "date", "name", "amount":
	default:
		errs = append(errs, fmt.Errorf("view.sort_field %q must be date, name or amount", c.View.SortField))
	}
	switch strings.ToLower(c.View.SortOrder) {
	case "", "asc", "desc":
	default:
		errs = append(errs, fmt.Errorf("view.sort_order %q must be asc or desc", c.View.SortOrder))
	}
	if c.Daemon.IntervalSec < 0 {
		errs = append(errs, fmt.Errorf("daemon.interval_sec must not be negative"))
	}
	return errors.Join(errs...)
}

// BaseURL returns the backend URL from env var or config, in that order.
func BaseURL(cfg Config) string {
	if u := os.Getenv(EnvAPIURL); u != "" {
		return u
	}
	return cfg.Server.BaseURL
}

// Username returns the signed-in user from env var or config, in that order.
func Username(cfg Config) string {
	if u := os.Getenv(EnvUser); u != "" {
		return u
	}
	return cfg.Account.Username
}

// RequireUsername is Username that fails when nobody is signed in.
func RequireUsername(cfg Config) (string, error) {
	u := strings.TrimSpace(Username(cfg))
	if u == "" {
		return "", ErrNotSignedIn
	}
	return u, nil
}

// AMQPURL returns the broker URL from env var or config, in that order.
func AMQPURL(cfg Config) string {
	if u := os.Getenv(EnvAMQPURL); u != "" {
		return u
	}
	return cfg.Daemon.AMQPURL
}

// Timeout returns the per-request timeout.
func Timeout(cfg Config) time.Duration {
	if cfg.Server.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(cfg.Server.TimeoutSec) * time.Second
}

// PollInterval returns the daemon poll interval.
func PollInterval(cfg Config) time.Duration {
	if cfg.Daemon.IntervalSec <= 0 {
		return time.Minute
	}
	return time.Duration(cfg.Daemon.IntervalSec) * time.Second
}
