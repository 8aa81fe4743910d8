package store

import (
	"context"
	"errors"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"
)

// ErrOffline is returned by mutations attempted against the cache.
var ErrOffline = errors.New("offline: changes need a connection to the server")

// Offline serves cached snapshots through the same interface as the backend
// client. It is read-only.
type Offline struct {
	cache     *Cache
	fetchedAt time.Time
}

// NewOffline wraps c.
func NewOffline(c *Cache) *Offline {
	return &Offline{cache: c}
}

// FetchExpenses returns the cached snapshot of owner.
func (o *Offline) FetchExpenses(_ context.Context, owner string) ([]model.Expense, error) {
	snap, err := o.cache.LoadSnapshot(owner)
	if err != nil {
		return nil, err
	}
	o.fetchedAt = snap.FetchedAt
	return snap.Expenses, nil
}

// AddExpense always fails with ErrOffline.
func (o *Offline) AddExpense(context.Context, string, model.NewExpense) error {
	return ErrOffline
}

// DeleteExpenses always fails with ErrOffline.
func (o *Offline) DeleteExpenses(context.Context, []model.ID) error {
	return ErrOffline
}

// FetchedAt is the snapshot time of the last successful fetch.
func (o *Offline) FetchedAt() time.Time { return o.fetchedAt }
