package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestColumnChartDimensions(t *testing.T) {
	out := ColumnChart([]float64{10, 40, 20}, []string{"Jan", "Feb", "Mar"}, 30, 4, 5)
	lines := strings.Split(out, "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6 (5 rows + labels)", len(lines))
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w != 12 {
			t.Errorf("line %d width = %d, want 12", i, w)
		}
	}
	if !strings.Contains(lines[5], "Feb") {
		t.Errorf("label row = %q", lines[5])
	}
}

func TestSparklineLength(t *testing.T) {
	if got := lipgloss.Width(Sparkline([]float64{0, 1, 2, 3}, "#ffffff")); got != 4 {
		t.Fatalf("width = %d, want 4", got)
	}
	if Sparkline(nil, "#ffffff") != "" {
		t.Fatal("empty input should render nothing")
	}
}
