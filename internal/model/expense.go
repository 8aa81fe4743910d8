// Package model defines the expense, account and threshold types shared by
// every pennywise package.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedLabel is the aggregation bucket for expenses without a category.
const UncategorizedLabel = "Uncategorized"

// DateLayout is the canonical date format sent to the backend.
const DateLayout = "2006-01-02"

// ID identifies a persisted expense. The backend assigns it; the zero value
// marks a record that has not been saved yet.
type ID string

// IsZero reports whether the id is unassigned.
func (id ID) IsZero() bool { return id == "" }

func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts both numeric and string ids.
func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("model: invalid id %s: %w", s, err)
		}
		*id = ID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("model: invalid id %s: %w", s, err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes integer ids as JSON numbers, everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Expense is one spending record owned by a single user.
type Expense struct {
	ID       ID              `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
}

// SortKey parses Date into a comparable instant. ok is false when the date
// cannot be parsed.
func (e Expense) SortKey() (t time.Time, ok bool) {
	return ParseDate(e.Date)
}

// CategoryLabel returns the category used for aggregation. Only a blank
// category is replaced; any other value is kept exactly as stored.
func (e Expense) CategoryLabel() string {
	if strings.TrimSpace(e.Category) == "" {
		return UncategorizedLabel
	}
	return e.Category
}

// DisplayDate renders the date canonically, or verbatim when unparseable.
func (e Expense) DisplayDate() string {
	if t, ok := e.SortKey(); ok {
		return t.Format(DateLayout)
	}
	return e.Date
}

// dateLayouts are tried in order. The web client renders dates as MM-DD-YY
// and the backend echoes whatever was submitted.
var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"01-02-06",
	"01/02/06",
	"01/02/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate parses a calendar date in any supported layout. Time of day is
// dropped and the result is midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
