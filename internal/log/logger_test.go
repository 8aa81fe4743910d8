package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestWithComponentStampsAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Writer: &buf}).WithComponent(ComponentLedger)
	l.Info("loaded", FieldCount, 3)

	out := buf.String()
	if !strings.Contains(out, "component=ledger") {
		t.Errorf("output %q missing component", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("output %q missing count", out)
	}
	if l.Component() != ComponentLedger {
		t.Errorf("Component() = %q", l.Component())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Writer: &buf})
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn not logged: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if lv, err := ParseLevel("DEBUG"); err != nil || lv != slog.LevelDebug {
		t.Errorf("ParseLevel(DEBUG) = %v, %v", lv, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) succeeded")
	}
}
