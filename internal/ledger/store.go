// Package ledger holds one user's expenses and derives the searchable,
// sortable view and the per-category totals from them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pennywise-app/pennywise/internal/log"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/report"
)

var (
	// ErrSuperseded is returned when a load finished after the owner changed
	// or a newer load or delete committed. Its result was discarded.
	ErrSuperseded = errors.New("ledger: result superseded by a newer change")
	// ErrOwnerMismatch rejects mutations for an owner other than the loaded one.
	ErrOwnerMismatch = errors.New("ledger: owner does not match the loaded expenses")
	// ErrNoOwner is returned when an operation is called without an owner.
	ErrNoOwner = errors.New("ledger: owner is required")
)

// Remote is the backend the store reads from and writes to.
type Remote interface {
	FetchExpenses(ctx context.Context, owner string) ([]model.Expense, error)
	AddExpense(ctx context.Context, owner string, e model.NewExpense) error
	DeleteExpenses(ctx context.Context, ids []model.ID) error
}

// ChangeFunc observes the full list after every committed load or delete.
type ChangeFunc func(owner string, expenses []model.Expense)

// Store is the in-memory expense list of one owner. It is safe for
// concurrent use; remote calls run without holding the lock.
type Store struct {
	remote   Remote
	onChange ChangeFunc
	log      *log.Logger

	mu     sync.RWMutex
	owner  string
	full   []entry // sorted by sort
	view   []entry // full filtered by query
	query  string
	sort   Sort
	loaded bool
	gen    uint64
}

// Option configures a Store.
type Option func(*Store)

// WithSort sets the initial sort.
func WithSort(s Sort) Option {
	return func(st *Store) { st.sort = s }
}

// WithChangeHook registers fn to run after each committed change.
func WithChangeHook(fn ChangeFunc) Option {
	return func(st *Store) { st.onChange = fn }
}

// WithLogger sets the store's logger.
func WithLogger(l *log.Logger) Option {
	return func(st *Store) { st.log = l.WithComponent(log.ComponentLedger) }
}

// New creates an empty store backed by remote.
func New(remote Remote, opts ...Option) *Store {
	s := &Store{remote: remote, log: log.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAll replaces the list with the owner's expenses from the backend.
// The active search and sort are kept. On error nothing changes.
func (s *Store) LoadAll(ctx context.Context, owner string) ([]model.Expense, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}

	s.mu.Lock()
	if owner != s.owner {
		s.resetLocked(owner)
	}
	s.gen++
	token := s.gen
	s.mu.Unlock()

	items, err := s.remote.FetchExpenses(ctx, owner)
	if err != nil {
		s.log.Debug("load failed", log.FieldOwner, owner, log.FieldError, err)
		return nil, err
	}

	entries := make([]entry, len(items))
	for i, e := range items {
		entries[i] = newEntry(e)
	}

	s.mu.Lock()
	if s.owner != owner || s.gen != token {
		s.mu.Unlock()
		s.log.Debug("discarding stale load", log.FieldOwner, owner)
		return nil, ErrSuperseded
	}
	s.full = entries
	s.loaded = true
	s.recomputeLocked()
	all := plain(s.full)
	hook := s.onChange
	s.mu.Unlock()

	s.log.Debug("loaded", log.FieldOwner, owner, log.FieldCount, len(all))
	if hook != nil {
		hook(owner, all)
	}
	return all, nil
}

// Search filters the full list by a case-insensitive substring of Name.
// Each query applies to the full list, never to a previous result.
func (s *Store) Search(query string) []model.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.recomputeLocked()
	return plain(s.view)
}

// ToggleSort flips the sort direction. Applying it twice restores the view.
func (s *Store) ToggleSort() []model.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort.Order = s.sort.Order.Flip()
	s.recomputeLocked()
	return plain(s.view)
}

// SortBy switches the sort key, keeping the direction.
func (s *Store) SortBy(f Field) []model.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort.Field = f
	s.recomputeLocked()
	return plain(s.view)
}

// Reset clears the search. The sort stays.
func (s *Store) Reset() []model.Expense {
	return s.Search("")
}

// Add validates draft, submits it and reloads the list. It returns the
// server's copy of the new record, or the draft as an unsaved expense when
// the new id cannot be told apart.
func (s *Store) Add(ctx context.Context, draft model.Draft, owner string) (model.Expense, error) {
	if owner == "" {
		return model.Expense{}, ErrNoOwner
	}
	ne, err := draft.Parse()
	if err != nil {
		return model.Expense{}, err
	}

	s.mu.RLock()
	before := model.NewIDSet()
	if s.owner == owner {
		for _, e := range s.full {
			before.Add(e.ID)
		}
	}
	s.mu.RUnlock()

	if err := s.remote.AddExpense(ctx, owner, ne); err != nil {
		return model.Expense{}, err
	}

	all, err := s.LoadAll(ctx, owner)
	if errors.Is(err, ErrSuperseded) {
		// A newer load or delete already committed; the record is saved and
		// that list is the current one.
		s.mu.RLock()
		all, err = nil, nil
		if s.owner == owner {
			all = plain(s.full)
		}
		s.mu.RUnlock()
	}
	if err != nil {
		return ne.Expense(), fmt.Errorf("ledger: reloading after add: %w", err)
	}
	return identifyAdded(before, all, ne), nil
}

func identifyAdded(before model.IDSet, all []model.Expense, ne model.NewExpense) model.Expense {
	var fresh []model.Expense
	for _, e := range all {
		if !before.Has(e.ID) {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 1 {
		return fresh[0]
	}
	for _, e := range fresh {
		if e.Name == ne.Name && e.Amount.Equal(ne.Amount) {
			return e
		}
	}
	return ne.Expense()
}

// DeleteMany removes ids in a single backend call. An empty set is a no-op.
// On success the ids leave both the full list and the view without a
// refetch; on failure nothing changes.
func (s *Store) DeleteMany(ctx context.Context, ids model.IDSet, owner string) error {
	if ids.Len() == 0 {
		return nil
	}
	s.mu.RLock()
	current := s.owner
	s.mu.RUnlock()
	if owner == "" || owner != current {
		return ErrOwnerMismatch
	}

	if err := s.remote.DeleteExpenses(ctx, ids.Slice()); err != nil {
		return err
	}

	s.mu.Lock()
	if s.owner != owner {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.full = without(s.full, ids)
	s.view = without(s.view, ids)
	s.gen++
	all := plain(s.full)
	hook := s.onChange
	s.mu.Unlock()

	s.log.Debug("deleted", log.FieldOwner, owner, log.FieldCount, ids.Len())
	if hook != nil {
		hook(owner, all)
	}
	return nil
}

// CategoryTotals aggregates the full list, ignoring any search.
func (s *Store) CategoryTotals() model.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := report.CategoryTotals(plain(s.full))
	t.Loaded = s.loaded
	return t
}

// Discard forgets everything, as on sign-out. In-flight loads are dropped.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked("")
	s.gen++
}

// Owner returns the owner whose expenses are held.
func (s *Store) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// View returns the searched and sorted list.
func (s *Store) View() []model.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return plain(s.view)
}

// All returns the full sorted list.
func (s *Store) All() []model.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return plain(s.full)
}

// Query returns the active search.
func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Sort returns the active sort.
func (s *Store) Sort() Sort {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

// Loaded reports whether a load has committed for the current owner.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Contains reports whether id is in the full list.
func (s *Store) Contains(id model.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.full {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) resetLocked(owner string) {
	s.owner = owner
	s.full = nil
	s.view = nil
	s.query = ""
	s.loaded = false
}

// recomputeLocked is the only place the view is derived: sort the full list,
// then filter it into the view.
func (s *Store) recomputeLocked() {
	sortEntries(s.full, s.sort)
	s.view = filterEntries(s.full, s.query)
}

func without(entries []entry, ids model.IDSet) []entry {
	out := entries[:0:0]
	for _, e := range entries {
		if !ids.Has(e.ID) {
			out = append(out, e)
		}
	}
	return out
}
