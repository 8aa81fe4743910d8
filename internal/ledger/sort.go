package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"
)

// Field is the key the expense list is sorted by.
type Field int

const (
	ByDate Field = iota
	ByName
	ByAmount
)

func (f Field) String() string {
	switch f {
	case ByName:
		return "name"
	case ByAmount:
		return "amount"
	default:
		return "date"
	}
}

// ParseField maps "date", "name" or "amount" to a Field.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date":
		return ByDate, nil
	case "name":
		return ByName, nil
	case "amount":
		return ByAmount, nil
	}
	return ByDate, fmt.Errorf("unknown sort field %q (want date, name or amount)", s)
}

// Next cycles date, name, amount.
func (f Field) Next() Field { return (f + 1) % 3 }

// Order is the sort direction.
type Order int

const (
	Descending Order = iota
	Ascending
)

func (o Order) String() string {
	if o == Ascending {
		return "asc"
	}
	return "desc"
}

// Flip returns the opposite order.
func (o Order) Flip() Order {
	if o == Ascending {
		return Descending
	}
	return Ascending
}

// ParseOrder maps "asc" or "desc" to an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	}
	return Descending, fmt.Errorf("unknown sort order %q (want asc or desc)", s)
}

// Sort is the active sort key and direction. The zero value is newest first.
type Sort struct {
	Field Field
	Order Order
}

func (s Sort) String() string { return s.Field.String() + " " + s.Order.String() }

// entry is an expense with its derived sort keys.
type entry struct {
	model.Expense
	date  time.Time
	dated bool
	name  string
}

func newEntry(e model.Expense) entry {
	d, ok := e.SortKey()
	return entry{Expense: e, date: d, dated: ok, name: strings.ToLower(e.Name)}
}

// compare orders a before b (negative), after (positive) or equal (zero)
// under srt. Undated entries sort after dated ones in both directions.
func compare(a, b *entry, srt Sort) int {
	var c int
	switch srt.Field {
	case ByName:
		c = strings.Compare(a.name, b.name)
	case ByAmount:
		c = a.Amount.Cmp(b.Amount)
	default:
		if a.dated != b.dated {
			if a.dated {
				return -1
			}
			return 1
		}
		if !a.dated {
			return 0
		}
		c = a.date.Compare(b.date)
	}
	if srt.Order == Descending {
		c = -c
	}
	return c
}

func sortEntries(entries []entry, srt Sort) {
	sort.SliceStable(entries, func(i, j int) bool {
		return compare(&entries[i], &entries[j], srt) < 0
	})
}

func filterEntries(entries []entry, query string) []entry {
	q := strings.ToLower(query)
	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		if q == "" || strings.Contains(e.name, q) {
			out = append(out, e)
		}
	}
	return out
}

func plain(entries []entry) []model.Expense {
	out := make([]model.Expense, len(entries))
	for i := range entries {
		out[i] = entries[i].Expense
	}
	return out
}
