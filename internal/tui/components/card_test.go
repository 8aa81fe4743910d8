package components

import (
	"strings"
	"testing"

	"github.com/pennywise-app/pennywise/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToWidth(t *testing.T) {
	for _, tc := range []struct{ total, n int }{{80, 3}, {81, 4}, {10, 1}, {7, 7}} {
		widths := LayoutRow(tc.total, tc.n)
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tc.total || len(widths) != tc.n {
			t.Errorf("LayoutRow(%d, %d) = %v", tc.total, tc.n, widths)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow with n=0 should be nil")
	}
}

func TestCardRowPadsShortCards(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("Food", "$12.00", 22)
	tall := ContentCard("Rent", "a\nb\nc\nd\ne", 22)
	shortLines := len(strings.Split(short, "\n"))
	tallLines := len(strings.Split(tall, "\n"))
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tall, short}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no styling: %q", i, lines[i])
		}
	}
}

func TestMetricCardShowsNote(t *testing.T) {
	out := MetricCard(Metric{Label: "Spent", Value: "$10.00", Note: "this month"}, 30)
	for _, want := range []string{"Spent", "$10.00", "this month"} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q", want)
		}
	}
}
