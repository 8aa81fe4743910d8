// Package report computes spending aggregates over expense lists.
package report

import (
	"sort"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CategoryTotals sums every expense by category label. Categories are ordered
// by amount descending, then name. Search filters never apply here; callers
// pass the full list.
func CategoryTotals(expenses []model.Expense) model.Totals {
	byCat := make(map[string]*model.CategoryTotal)
	var t model.Totals

	for _, e := range expenses {
		label := e.CategoryLabel()
		ct, ok := byCat[label]
		if !ok {
			ct = &model.CategoryTotal{Category: label}
			byCat[label] = ct
		}
		ct.Amount = ct.Amount.Add(e.Amount)
		ct.Count++
		t.Grand = t.Grand.Add(e.Amount)
		t.Count++
	}

	t.Categories = make([]model.CategoryTotal, 0, len(byCat))
	for _, ct := range byCat {
		if t.Grand.IsPositive() {
			ct.SharePercent = ct.Amount.Div(t.Grand).Mul(hundred).InexactFloat64()
		}
		t.Categories = append(t.Categories, *ct)
	}
	sort.Slice(t.Categories, func(i, j int) bool {
		a, b := t.Categories[i], t.Categories[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})
	return t
}

// FilterByTime returns expenses whose date falls in [since, until).
// Undated expenses are dropped.
func FilterByTime(expenses []model.Expense, since, until time.Time) []model.Expense {
	var out []model.Expense
	for _, e := range expenses {
		d, ok := e.SortKey()
		if !ok {
			continue
		}
		if !d.Before(since) && d.Before(until) {
			out = append(out, e)
		}
	}
	return out
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// MonthSpend sums the expenses dated within month.
func MonthSpend(expenses []model.Expense, month time.Time) decimal.Decimal {
	start := MonthStart(month)
	var sum decimal.Decimal
	for _, e := range FilterByTime(expenses, start, start.AddDate(0, 1, 0)) {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// AggregateMonths computes per-month spend between since and until
// inclusive, most recent first. Months with no expenses are present with
// zero amounts.
func AggregateMonths(expenses []model.Expense, since, until time.Time) []model.MonthlyStats {
	first, last := MonthStart(since), MonthStart(until)
	monthMap := make(map[time.Time]*model.MonthlyStats)

	for _, e := range FilterByTime(expenses, first, last.AddDate(0, 1, 0)) {
		d, _ := e.SortKey()
		key := MonthStart(d)
		ms, ok := monthMap[key]
		if !ok {
			ms = &model.MonthlyStats{Month: key}
			monthMap[key] = ms
		}
		ms.Amount = ms.Amount.Add(e.Amount)
		ms.Count++
	}

	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		if _, ok := monthMap[m]; !ok {
			monthMap[m] = &model.MonthlyStats{Month: m}
		}
	}

	months := make([]model.MonthlyStats, 0, len(monthMap))
	for _, ms := range monthMap {
		months = append(months, *ms)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.After(months[j].Month)
	})
	return months
}

// ThresholdStatus compares spend for month against the configured limit.
func ThresholdStatus(th model.Threshold, month time.Time, spent decimal.Decimal) model.ThresholdStatus {
	st := model.ThresholdStatus{
		Month: MonthStart(month),
		Spent: spent,
		Limit: th.Amount,
	}
	if !th.IsSet() {
		return st
	}
	limit := *th.Amount
	st.Remaining = limit.Sub(spent)
	if limit.IsPositive() {
		st.UsedPercent = spent.Div(limit).Mul(hundred).InexactFloat64()
	}
	st.Exceeded = spent.GreaterThan(limit)
	return st
}
