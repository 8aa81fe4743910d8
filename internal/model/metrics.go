package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the sum of all expenses in one category.
type CategoryTotal struct {
	Category     string
	Amount       decimal.Decimal
	Count        int
	SharePercent float64
}

// Totals is the per-category breakdown across the full expense list.
type Totals struct {
	Categories []CategoryTotal
	Grand      decimal.Decimal
	Count      int

	// Loaded is false until the first successful fetch. A zero Grand with
	// Loaded set means the user really has nothing recorded.
	Loaded bool
}

// Empty reports whether there are no expenses to aggregate.
func (t Totals) Empty() bool { return t.Count == 0 }

// ByCategory returns the totals keyed by category label.
func (t Totals) ByCategory() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(t.Categories))
	for _, c := range t.Categories {
		out[c.Category] = c.Amount
	}
	return out
}

// MonthlyStats holds spend for one calendar month.
type MonthlyStats struct {
	Month  time.Time
	Amount decimal.Decimal
	Count  int
}
