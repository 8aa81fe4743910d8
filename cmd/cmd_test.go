package cmd

import (
	"errors"
	"testing"

	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/ledger"
	"github.com/pennywise-app/pennywise/internal/model"
)

func TestParseLimit(t *testing.T) {
	for _, in := range []string{"250", "$99.95", " 0 "} {
		if _, err := parseLimit(in); err != nil {
			t.Errorf("parseLimit(%q) = %v", in, err)
		}
	}
	for _, in := range []string{"", "-5", "lots"} {
		_, err := parseLimit(in)
		var verr *model.ValidationError
		if !errors.As(err, &verr) || !verr.Has("threshold") {
			t.Errorf("parseLimit(%q) err = %v, want threshold validation error", in, err)
		}
	}
}

func TestSortFromConfig(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = config.DefaultConfig()
	cfg.View.SortField, cfg.View.SortOrder = "amount", "asc"
	if got := sortFromConfig(); got.Field != ledger.ByAmount || got.Order != ledger.Ascending {
		t.Errorf("sortFromConfig() = %v", got)
	}

	cfg.View.SortField, cfg.View.SortOrder = "", ""
	if got := sortFromConfig(); got.Field != ledger.ByDate || got.Order != ledger.Descending {
		t.Errorf("sortFromConfig() with empty view = %v, want date desc", got)
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--interval", "30s", "--detach=true"})
	want := []string{"daemon", "--interval", "30s"}
	if len(got) != len(want) {
		t.Fatalf("filterDetachArg = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("filterDetachArg = %v, want %v", got, want)
		}
	}
}

func TestCurrentUserPrefersFlag(t *testing.T) {
	oldCfg, oldFlag := cfg, flagUser
	defer func() { cfg, flagUser = oldCfg, oldFlag }()
	t.Setenv(config.EnvUser, "")

	cfg = config.DefaultConfig()
	cfg.Account.Username = "ann"
	flagUser = ""
	if u, err := currentUser(); err != nil || u != "ann" {
		t.Errorf("currentUser() = %q, %v; want ann", u, err)
	}

	flagUser = "bob"
	if u, _ := currentUser(); u != "bob" {
		t.Errorf("currentUser() = %q, want bob", u)
	}

	flagUser = ""
	cfg.Account.Username = ""
	if _, err := currentUser(); !errors.Is(err, config.ErrNotSignedIn) {
		t.Errorf("currentUser() err = %v, want ErrNotSignedIn", err)
	}
}
