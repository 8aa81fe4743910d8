package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"

	"github.com/shopspring/decimal"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sample() []model.Expense {
	return []model.Expense{
		{ID: "2", Name: "Rent", Amount: decimal.NewFromInt(1200), Category: "Housing", Date: "2024-01-01"},
		{ID: "1", Name: "Coffee", Amount: decimal.RequireFromString("4.50"), Category: "Food", Date: "01-05-24"},
	}
}

func TestSnapshotKeepsOrderAndValues(t *testing.T) {
	c := openTestCache(t)
	at := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	if err := c.SaveSnapshot("ann", sample(), at); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	snap, err := c.LoadSnapshot("ann")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !snap.FetchedAt.Equal(at) {
		t.Errorf("FetchedAt = %v, want %v", snap.FetchedAt, at)
	}
	if len(snap.Expenses) != 2 || snap.Expenses[0].ID != "2" || snap.Expenses[1].Date != "01-05-24" {
		t.Fatalf("expenses = %+v", snap.Expenses)
	}
	if !snap.Expenses[1].Amount.Equal(decimal.RequireFromString("4.5")) {
		t.Errorf("amount = %s", snap.Expenses[1].Amount)
	}
}

func TestSnapshotReplaceAndDelete(t *testing.T) {
	c := openTestCache(t)
	now := time.Now()
	if err := c.SaveSnapshot("ann", sample(), now); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveSnapshot("ann", sample()[:1], now); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveSnapshot("bob", nil, now); err != nil {
		t.Fatal(err)
	}

	snap, err := c.LoadSnapshot("ann")
	if err != nil || len(snap.Expenses) != 1 {
		t.Fatalf("after replace: %+v, %v", snap, err)
	}
	owners, err := c.Owners()
	if err != nil || len(owners) != 2 {
		t.Fatalf("Owners = %v, %v", owners, err)
	}

	if err := c.DeleteOwner("ann"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.LoadSnapshot("ann"); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("LoadSnapshot after delete = %v, want ErrNoSnapshot", err)
	}
	snap, err = c.LoadSnapshot("bob")
	if err != nil || len(snap.Expenses) != 0 {
		t.Errorf("bob = %+v, %v", snap, err)
	}
}

func TestThresholdCache(t *testing.T) {
	c := openTestCache(t)
	if _, err := c.LoadThreshold("ann"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
	limit := decimal.NewFromInt(500)
	if err := c.SaveThreshold("ann", model.Threshold{Amount: &limit}, time.Now()); err != nil {
		t.Fatal(err)
	}
	th, err := c.LoadThreshold("ann")
	if err != nil || !th.IsSet() || !th.Amount.Equal(limit) {
		t.Fatalf("threshold = %v, %v", th.Amount, err)
	}
	if err := c.SaveThreshold("ann", model.Threshold{}, time.Now()); err != nil {
		t.Fatal(err)
	}
	if th, _ := c.LoadThreshold("ann"); th.IsSet() {
		t.Error("cleared threshold still set")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SaveSnapshot("ann", sample(), time.Now()); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	if snap, err := c.LoadSnapshot("ann"); err != nil || len(snap.Expenses) != 2 {
		t.Errorf("after reopen: %+v, %v", snap, err)
	}
}

func TestOfflineIsReadOnly(t *testing.T) {
	c := openTestCache(t)
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := c.SaveSnapshot("ann", sample(), at); err != nil {
		t.Fatal(err)
	}
	o := NewOffline(c)
	got, err := o.FetchExpenses(context.Background(), "ann")
	if err != nil || len(got) != 2 {
		t.Fatalf("FetchExpenses = %v, %v", got, err)
	}
	if !o.FetchedAt().Equal(at) {
		t.Errorf("FetchedAt = %v", o.FetchedAt())
	}
	if err := o.DeleteExpenses(context.Background(), []model.ID{"1"}); !errors.Is(err, ErrOffline) {
		t.Errorf("DeleteExpenses = %v, want ErrOffline", err)
	}
	if err := o.AddExpense(context.Background(), "ann", model.NewExpense{}); !errors.Is(err, ErrOffline) {
		t.Errorf("AddExpense = %v, want ErrOffline", err)
	}
	if _, err := o.FetchExpenses(context.Background(), "zed"); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("unknown owner = %v", err)
	}
}
