package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned for malformed user input. It never reaches the
// network.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Draft is an expense as typed by the user, before validation.
type Draft struct {
	Name     string
	Amount   string
	Category string
	Date     string
}

// NewExpense is a validated draft ready to submit.
type NewExpense struct {
	Name     string
	Amount   decimal.Decimal
	Category string
	Date     time.Time
}

// DateString returns the date in the backend's canonical layout.
func (n NewExpense) DateString() string {
	return n.Date.Format(DateLayout)
}

// Expense converts the draft into an unsaved Expense (zero ID).
func (n NewExpense) Expense() Expense {
	return Expense{
		Name:     n.Name,
		Amount:   n.Amount,
		Category: n.Category,
		Date:     n.DateString(),
	}
}

// Validate checks every field and reports all failures at once.
func (d Draft) Validate() error {
	_, err := d.Parse()
	return err
}

// Parse validates the draft and converts it.
func (d Draft) Parse() (NewExpense, error) {
	var verr ValidationError
	var out NewExpense

	out.Name = strings.TrimSpace(d.Name)
	if out.Name == "" {
		verr.add("name", "name is required")
	}

	raw := strings.TrimSpace(d.Amount)
	switch amt, err := decimal.NewFromString(raw); {
	case raw == "":
		verr.add("amount", "amount is required")
	case err != nil:
		verr.add("amount", "amount must be a number")
	case amt.IsNegative():
		verr.add("amount", "amount cannot be negative")
	default:
		out.Amount = amt
	}

	out.Category = strings.TrimSpace(d.Category)
	if out.Category == "" {
		verr.add("category", "category is required")
	}

	if t, ok := ParseDate(d.Date); ok {
		out.Date = t
	} else {
		verr.add("date", "date must be a valid date")
	}

	if err := verr.orNil(); err != nil {
		return NewExpense{}, err
	}
	return out, nil
}
