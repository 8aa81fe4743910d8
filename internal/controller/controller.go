// Package controller holds the interactive state around a ledger: the
// selection, the delete confirmation and the status line.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pennywise-app/pennywise/internal/api"
	"github.com/pennywise-app/pennywise/internal/ledger"
	"github.com/pennywise-app/pennywise/internal/model"
)

// ErrNothingToConfirm is returned by ConfirmDelete without a pending request.
var ErrNothingToConfirm = errors.New("controller: no delete awaiting confirmation")

// Kind classifies a status message.
type Kind int

const (
	Info Kind = iota
	Error
)

// Message is the text shown after the last action.
type Message struct {
	Text string
	Kind Kind
}

// Confirmation is a pending bulk delete. IDs is a snapshot of the selection
// at the time of the request.
type Confirmation struct {
	IDs    []model.ID
	Prompt string
}

// Controller is safe for concurrent use.
type Controller struct {
	store *ledger.Store

	mu       sync.Mutex
	owner    string
	selected model.IDSet
	pending  *Confirmation
	status   Message
}

// New creates a controller for owner over store.
func New(store *ledger.Store, owner string) *Controller {
	return &Controller{
		store:    store,
		owner:    owner,
		selected: model.NewIDSet(),
	}
}

// Owner returns the signed-in user.
func (c *Controller) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

// Store returns the underlying ledger.
func (c *Controller) Store() *ledger.Store { return c.store }

// SwitchOwner drops every piece of state tied to the previous user.
func (c *Controller) SwitchOwner(owner string) {
	c.store.Discard()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owner = owner
	c.selected = model.NewIDSet()
	c.pending = nil
	c.status = Message{}
}

// Reload fetches the owner's expenses again. A result that arrived after a
// newer change is ignored silently.
func (c *Controller) Reload(ctx context.Context) error {
	all, err := c.store.LoadAll(ctx, c.Owner())
	if errors.Is(err, ledger.ErrSuperseded) {
		return nil
	}
	if err != nil {
		c.fail(err)
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	c.status = Message{Text: fmt.Sprintf("Loaded %s.", plural(len(all), "expense"))}
	return nil
}

// SetSearch replaces the search query.
func (c *Controller) SetSearch(q string) []model.Expense { return c.store.Search(q) }

// ToggleSort flips the sort order.
func (c *Controller) ToggleSort() []model.Expense { return c.store.ToggleSort() }

// SortBy changes the sort key.
func (c *Controller) SortBy(f ledger.Field) []model.Expense { return c.store.SortBy(f) }

// Reset clears the search.
func (c *Controller) Reset() []model.Expense { return c.store.Reset() }

// View returns the visible list.
func (c *Controller) View() []model.Expense { return c.store.View() }

// Totals returns the per-category totals of the full list.
func (c *Controller) Totals() model.Totals { return c.store.CategoryTotals() }

// Add submits draft. On success the list has been reloaded.
func (c *Controller) Add(ctx context.Context, draft model.Draft) (model.Expense, error) {
	e, err := c.store.Add(ctx, draft, c.Owner())
	if err != nil {
		c.fail(err)
		return e, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	c.status = Message{Text: fmt.Sprintf("Added %q.", e.Name)}
	return e, nil
}

// Toggle flips the selection of id and reports whether it is now selected.
// Unknown ids are never selected.
func (c *Controller) Toggle(id model.ID) bool {
	known := c.store.Contains(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected.Has(id) {
		c.selected.Remove(id)
		return false
	}
	if !known {
		return false
	}
	c.selected.Add(id)
	return true
}

// SelectVisible adds every visible expense to the selection.
func (c *Controller) SelectVisible() int {
	view := c.store.View()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range view {
		c.selected.Add(e.ID)
	}
	return c.selected.Len()
}

// ClearSelection empties the selection.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = model.NewIDSet()
}

// Selected returns the selected ids in stable order.
func (c *Controller) Selected() []model.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected.Slice()
}

// IsSelected reports whether id is selected.
func (c *Controller) IsSelected(id model.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected.Has(id)
}

// RequestDelete snapshots the selection into a pending confirmation. It
// returns nil, and starts nothing, when the selection is empty.
func (c *Controller) RequestDelete() *Confirmation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected.Len() == 0 {
		c.pending = nil
		return nil
	}
	ids := c.selected.Slice()
	c.pending = &Confirmation{
		IDs:    ids,
		Prompt: fmt.Sprintf("Delete %s? This cannot be undone.", plural(len(ids), "selected expense")),
	}
	cp := *c.pending
	return &cp
}

// Pending returns the confirmation awaiting an answer, if any.
func (c *Controller) Pending() *Confirmation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	cp := *c.pending
	return &cp
}

// CancelDelete drops the pending confirmation. The selection stays.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// ConfirmDelete deletes the ids captured by RequestDelete. It is the only
// way a delete reaches the backend.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	owner := c.owner
	c.mu.Unlock()

	if p == nil {
		return ErrNothingToConfirm
	}
	if err := c.store.DeleteMany(ctx, model.NewIDSet(p.IDs...), owner); err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range p.IDs {
		c.selected.Remove(id)
	}
	c.pruneLocked()
	c.status = Message{Text: fmt.Sprintf("Deleted %s.", plural(len(p.IDs), "expense"))}
	return nil
}

// Status returns the message of the last action.
func (c *Controller) Status() Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SetStatus records a message produced outside the controller.
func (c *Controller) SetStatus(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = m
}

// Fail records err as the status and returns it.
func (c *Controller) Fail(err error) error {
	c.fail(err)
	return err
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = Message{Text: api.Message(err), Kind: Error}
}

// pruneLocked drops selected ids that are no longer loaded.
func (c *Controller) pruneLocked() {
	for id := range c.selected {
		if !c.store.Contains(id) {
			c.selected.Remove(id)
		}
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
