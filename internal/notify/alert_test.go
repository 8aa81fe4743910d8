package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAlertToJSON(t *testing.T) {
	a := Alert{
		Owner:       "ann",
		Month:       "2024-05",
		Spent:       decimal.RequireFromString("125.50"),
		Threshold:   decimal.RequireFromString("100"),
		UsedPercent: 125.5,
		At:          time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC),
	}

	data, err := a.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"owner", "month", "spent", "threshold", "used_percent", "at"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("missing %q in %s", k, data)
		}
	}

	var back Alert
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal alert: %v", err)
	}
	if back.Owner != a.Owner || back.Month != a.Month || !back.Spent.Equal(a.Spent) ||
		!back.Threshold.Equal(a.Threshold) || !back.At.Equal(a.At) {
		t.Errorf("round trip = %+v, want %+v", back, a)
	}
}
