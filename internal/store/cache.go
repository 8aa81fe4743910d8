// Package store provides a SQLite-backed snapshot cache of each user's
// expenses, used when the backend cannot be reached.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNoSnapshot is returned when nothing is cached for an owner.
var ErrNoSnapshot = errors.New("store: no cached snapshot")

// Snapshot is the last list of expenses fetched for an owner.
type Snapshot struct {
	Owner     string
	FetchedAt time.Time
	Expenses  []model.Expense
}

// Cache provides SQLite-backed snapshot caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path and migrates
// its schema.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveSnapshot replaces the cached expenses of owner, keeping their order.
func (c *Cache) SaveSnapshot(owner string, expenses []model.Expense, at time.Time) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT OR REPLACE INTO snapshots (owner, fetched_at) VALUES (?, ?)`,
		owner, at.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM snapshot_expenses WHERE owner = ?", owner); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO snapshot_expenses
		(owner, position, expense_id, name, amount, category, date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range expenses {
		if _, err := stmt.Exec(owner, i, string(e.ID), e.Name, e.Amount.String(), e.Category, e.Date); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadSnapshot returns the cached expenses of owner.
func (c *Cache) LoadSnapshot(owner string) (Snapshot, error) {
	var fetched string
	err := c.db.QueryRow("SELECT fetched_at FROM snapshots WHERE owner = ?", owner).Scan(&fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Owner: owner, Expenses: []model.Expense{}}
	snap.FetchedAt, _ = time.Parse(time.RFC3339, fetched)

	rows, err := c.db.Query(`SELECT expense_id, name, amount, category, date
		FROM snapshot_expenses WHERE owner = ? ORDER BY position`, owner)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e model.Expense
		var id, amount string
		if err := rows.Scan(&id, &e.Name, &amount, &e.Category, &e.Date); err != nil {
			return Snapshot{}, err
		}
		e.ID = model.ID(id)
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return Snapshot{}, fmt.Errorf("store: bad cached amount %q: %w", amount, err)
		}
		snap.Expenses = append(snap.Expenses, e)
	}
	return snap, rows.Err()
}

// SaveThreshold caches the owner's threshold.
func (c *Cache) SaveThreshold(owner string, th model.Threshold, at time.Time) error {
	var amount sql.NullString
	if th.IsSet() {
		amount = sql.NullString{String: th.Amount.String(), Valid: true}
	}
	_, err := c.db.Exec(`INSERT OR REPLACE INTO thresholds (owner, amount, fetched_at) VALUES (?, ?, ?)`,
		owner, amount, at.UTC().Format(time.RFC3339))
	return err
}

// LoadThreshold returns the cached threshold of owner.
func (c *Cache) LoadThreshold(owner string) (model.Threshold, error) {
	var amount sql.NullString
	err := c.db.QueryRow("SELECT amount FROM thresholds WHERE owner = ?", owner).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Threshold{}, ErrNoSnapshot
	}
	if err != nil {
		return model.Threshold{}, err
	}
	if !amount.Valid {
		return model.Threshold{}, nil
	}
	d, err := decimal.NewFromString(amount.String)
	if err != nil {
		return model.Threshold{}, fmt.Errorf("store: bad cached threshold %q: %w", amount.String, err)
	}
	return model.Threshold{Amount: &d}, nil
}

// DeleteOwner removes everything cached for owner.
func (c *Cache) DeleteOwner(owner string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		"DELETE FROM snapshot_expenses WHERE owner = ?",
		"DELETE FROM snapshots WHERE owner = ?",
		"DELETE FROM thresholds WHERE owner = ?",
	} {
		if _, err := tx.Exec(q, owner); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Owners lists the owners with a cached snapshot.
func (c *Cache) Owners() ([]string, error) {
	rows, err := c.db.Query("SELECT owner FROM snapshots ORDER BY owner")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
