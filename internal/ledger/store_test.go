package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pennywise-app/pennywise/internal/api"
	"github.com/pennywise-app/pennywise/internal/model"

	"github.com/shopspring/decimal"
)

// fakeRemote is an in-memory backend that counts calls.
type fakeRemote struct {
	mu      sync.Mutex
	data    map[string][]model.Expense
	nextID  int
	fetches int
	adds    int
	deletes int

	fetchErr  error
	addErr    error
	deleteErr error

	// beforeFetchReturn runs after the fetch result is captured, before it
	// is returned. Tests use it to interleave other operations.
	beforeFetchReturn func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string][]model.Expense), nextID: 100}
}

func (f *fakeRemote) seed(owner string, expenses ...model.Expense) {
	f.data[owner] = append(f.data[owner], expenses...)
}

func (f *fakeRemote) FetchExpenses(_ context.Context, owner string) ([]model.Expense, error) {
	f.mu.Lock()
	f.fetches++
	err := f.fetchErr
	out := append([]model.Expense(nil), f.data[owner]...)
	hook := f.beforeFetchReturn
	f.beforeFetchReturn = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeRemote) AddExpense(_ context.Context, owner string, e model.NewExpense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	if f.addErr != nil {
		return f.addErr
	}
	f.nextID++
	exp := e.Expense()
	exp.ID = model.ID(fmt.Sprint(f.nextID))
	f.data[owner] = append(f.data[owner], exp)
	return nil
}

func (f *fakeRemote) DeleteExpenses(_ context.Context, ids []model.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	set := model.NewIDSet(ids...)
	for owner, list := range f.data {
		kept := list[:0:0]
		for _, e := range list {
			if !set.Has(e.ID) {
				kept = append(kept, e)
			}
		}
		f.data[owner] = kept
	}
	return nil
}

func exp(id, name, amount, cat, date string) model.Expense {
	return model.Expense{
		ID:       model.ID(id),
		Name:     name,
		Amount:   decimal.RequireFromString(amount),
		Category: cat,
		Date:     date,
	}
}

func ids(expenses []model.Expense) []model.ID {
	out := make([]model.ID, len(expenses))
	for i, e := range expenses {
		out[i] = e.ID
	}
	return out
}

func assertIDs(t *testing.T, what string, got []model.Expense, want ...model.ID) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("%s = %v, want %v", what, g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("%s = %v, want %v", what, g, want)
		}
	}
}

func coffeeAndRent(t *testing.T) (*Store, *fakeRemote) {
	t.Helper()
	r := newFakeRemote()
	r.seed("ann",
		exp("1", "Coffee", "4.50", "Food", "2024-01-05"),
		exp("2", "Rent", "1200", "Housing", "2024-01-01"),
	)
	s := New(r)
	if _, err := s.LoadAll(context.Background(), "ann"); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	return s, r
}

func TestCoffeeAndRent(t *testing.T) {
	s, _ := coffeeAndRent(t)

	assertIDs(t, "default view", s.View(), "1", "2")

	totals := s.CategoryTotals()
	by := totals.ByCategory()
	if !by["Food"].Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("Food = %s, want 4.50", by["Food"])
	}
	if !by["Housing"].Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Housing = %s, want 1200", by["Housing"])
	}
	if !totals.Grand.Equal(decimal.RequireFromString("1204.50")) {
		t.Errorf("Grand = %s, want 1204.50", totals.Grand)
	}

	assertIDs(t, `Search("re")`, s.Search("re"), "2")
}

func TestSearchAlwaysAppliesToFullList(t *testing.T) {
	s, _ := coffeeAndRent(t)

	assertIDs(t, `Search("coffee")`, s.Search("coffee"), "1")
	assertIDs(t, `Search("RENT")`, s.Search("RENT"), "2")
	assertIDs(t, `Search("")`, s.Search(""), "1", "2")
	assertIDs(t, `Search("zzz")`, s.Search("zzz"))
}

func TestSearchKeepsSurroundingSpaces(t *testing.T) {
	r := newFakeRemote()
	r.seed("ann",
		exp("1", "Ice cream", "3", "Food", "2024-01-02"),
		exp("2", "Coffee", "4.50", "Food", "2024-01-03"),
		exp("3", "Xbox", "300", "Games", "2024-01-04"),
	)
	s := New(r)
	if _, err := s.LoadAll(context.Background(), "ann"); err != nil {
		t.Fatal(err)
	}

	for _, q := range []string{" c", " ", "x ", "e ", "Ice "} {
		for _, e := range s.Search(q) {
			if !strings.Contains(strings.ToLower(e.Name), strings.ToLower(q)) {
				t.Errorf("Search(%q) returned %q", q, e.Name)
			}
		}
	}
	assertIDs(t, `Search(" c")`, s.Search(" c"), "1")
	assertIDs(t, `Search("x ")`, s.Search("x "))
}

func TestTotalsIgnoreSearch(t *testing.T) {
	s, _ := coffeeAndRent(t)
	before := s.CategoryTotals()
	s.Search("coffee")
	after := s.CategoryTotals()
	if !before.Grand.Equal(after.Grand) || after.Count != 2 {
		t.Errorf("totals changed under search: %s/%d -> %s/%d", before.Grand, before.Count, after.Grand, after.Count)
	}
}

func TestTotalsLoadedDistinctFromEmpty(t *testing.T) {
	s := New(newFakeRemote())
	if s.CategoryTotals().Loaded {
		t.Fatal("totals loaded before any fetch")
	}
	if _, err := s.LoadAll(context.Background(), "ann"); err != nil {
		t.Fatal(err)
	}
	totals := s.CategoryTotals()
	if !totals.Loaded || !totals.Empty() {
		t.Errorf("after empty load: Loaded=%v Empty=%v", totals.Loaded, totals.Empty())
	}
}

func TestToggleSortIsInvolution(t *testing.T) {
	r := newFakeRemote()
	r.seed("ann",
		exp("1", "a", "1", "x", "2024-01-02"),
		exp("2", "b", "1", "x", "2024-01-02"),
		exp("3", "c", "1", "x", "someday"),
		exp("4", "d", "1", "x", "2024-03-01"),
		exp("5", "e", "1", "x", ""),
		exp("6", "f", "1", "x", "2023-12-31"),
	)
	s := New(r)
	if _, err := s.LoadAll(context.Background(), "ann"); err != nil {
		t.Fatal(err)
	}
	start := ids(s.View())
	s.ToggleSort()
	got := s.ToggleSort()
	assertIDs(t, "after two toggles", got, start...)
}

func TestUndatedSortLastBothDirections(t *testing.T) {
	r := newFakeRemote()
	r.seed("ann",
		exp("1", "a", "1", "x", "not a date"),
		exp("2", "b", "1", "x", "2024-01-01"),
		exp("3", "c", "1", "x", "2024-02-01"),
	)
	s := New(r)
	if _, err := s.LoadAll(context.Background(), "ann"); err != nil {
		t.Fatal(err)
	}
	assertIDs(t, "descending", s.View(), "3", "2", "1")
	assertIDs(t, "ascending", s.ToggleSort(), "2", "3", "1")
}

func TestSortComposesWithSearch(t *testing.T) {
	r := newFakeRemote()
	r.seed("ann",
		exp("1", "Bus ticket", "2.50", "Transport", "2024-01-03"),
		exp("2", "Bus pass", "60", "Transport", "2024-01-10"),
		exp("3", "Lunch", "12", "Food", "2024-01-05"),
	)
	s := New(r)
	if _, err := s.LoadAll(context.Background(), "ann"); err != nil {
		t.Fatal(err)
	}
	assertIDs(t, "search bus", s.Search("bus"), "2", "1")
	assertIDs(t, "toggle under search", s.ToggleSort(), "1", "2")
	assertIDs(t, "sort by amount", s.SortBy(ByAmount), "1", "2")
	assertIDs(t, "reset keeps sort", s.Reset(), "1", "3", "2")
}

func TestLoadAllKeepsSearchAndSort(t *testing.T) {
	s, r := coffeeAndRent(t)
	s.Search("e")
	s.ToggleSort()
	r.seed("ann", exp("3", "Cheese", "7", "Food", "2024-01-03"))

	if _, err := s.LoadAll(context.Background(), "ann"); err != nil {
		t.Fatal(err)
	}
	assertIDs(t, "view after reload", s.View(), "2", "3", "1")
	if s.Query() != "e" || s.Sort().Order != Ascending {
		t.Errorf("query/sort lost: %q %v", s.Query(), s.Sort())
	}
}

func TestLoadAllFailureLeavesStateUnchanged(t *testing.T) {
	s, r := coffeeAndRent(t)
	r.fetchErr = &api.TransportError{Op: "get_expenses", Err: errors.New("connection refused")}

	if _, err := s.LoadAll(context.Background(), "ann"); !api.IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
	assertIDs(t, "view after failed load", s.View(), "1", "2")
}

func TestAddValidationMakesNoCall(t *testing.T) {
	s, r := coffeeAndRent(t)
	_, err := s.Add(context.Background(), model.Draft{Name: "", Amount: "10", Category: "Food", Date: "2024-01-01"}, "ann")

	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *model.ValidationError", err)
	}
	if r.adds != 0 || r.fetches != 1 {
		t.Errorf("adds=%d fetches=%d, want 0 and 1", r.adds, r.fetches)
	}
	assertIDs(t, "view", s.View(), "1", "2")
}

func TestAddRemoteRejection(t *testing.T) {
	s, r := coffeeAndRent(t)
	r.addErr = &api.RemoteError{Op: "add_expense", Status: 200, Message: "duplicate"}

	_, err := s.Add(context.Background(), model.Draft{Name: "Tea", Amount: "3", Category: "Food", Date: "2024-01-07"}, "ann")
	if err == nil || err.Error() != "duplicate" {
		t.Fatalf("err = %v, want duplicate", err)
	}
	if r.fetches != 1 {
		t.Errorf("fetches = %d, want no reload after rejection", r.fetches)
	}
	assertIDs(t, "view", s.View(), "1", "2")
}

func TestAddReloadsAndReturnsServerRecord(t *testing.T) {
	s, r := coffeeAndRent(t)
	got, err := s.Add(context.Background(), model.Draft{Name: "Tea", Amount: "3", Category: "Food", Date: "2024-01-07"}, "ann")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got.ID != "101" || got.Name != "Tea" {
		t.Errorf("added = %+v, want id 101", got)
	}
	if r.fetches != 2 {
		t.Errorf("fetches = %d, want 2", r.fetches)
	}
	assertIDs(t, "view", s.View(), "101", "1", "2")
}

func TestAddSucceedsWhenReloadIsSuperseded(t *testing.T) {
	s, r := coffeeAndRent(t)
	r.beforeFetchReturn = func() {
		if _, err := s.LoadAll(context.Background(), "ann"); err != nil {
			t.Errorf("concurrent LoadAll: %v", err)
		}
	}

	got, err := s.Add(context.Background(), model.Draft{Name: "Tea", Amount: "3", Category: "Food", Date: "2024-01-07"}, "ann")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got.ID != "101" || got.Name != "Tea" {
		t.Errorf("added = %+v, want id 101", got)
	}
	if r.adds != 1 {
		t.Errorf("adds = %d, want 1", r.adds)
	}
	assertIDs(t, "view", s.View(), "101", "1", "2")
}

func TestDeleteManyEmptyMakesNoCall(t *testing.T) {
	s, r := coffeeAndRent(t)
	if err := s.DeleteMany(context.Background(), model.NewIDSet(), "ann"); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if r.deletes != 0 {
		t.Errorf("deletes = %d, want 0", r.deletes)
	}
}

func TestDeleteManyRemovesWithoutRefetch(t *testing.T) {
	s, r := coffeeAndRent(t)
	s.Search("o")
	if err := s.DeleteMany(context.Background(), model.NewIDSet("1"), "ann"); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if r.deletes != 1 || r.fetches != 1 {
		t.Errorf("deletes=%d fetches=%d, want 1 and 1", r.deletes, r.fetches)
	}
	assertIDs(t, "view", s.View())
	assertIDs(t, "all", s.All(), "2")
	if s.Contains("1") {
		t.Error("deleted id still present")
	}
}

func TestDeleteManyFailureKeepsEverything(t *testing.T) {
	s, r := coffeeAndRent(t)
	r.deleteErr = &api.RemoteError{Op: "delete_expenses", Status: 500, Message: "database locked"}
	err := s.DeleteMany(context.Background(), model.NewIDSet("1", "2"), "ann")
	if err == nil || api.Message(err) != "database locked" {
		t.Fatalf("err = %v", err)
	}
	assertIDs(t, "view", s.View(), "1", "2")
}

func TestDeleteManyOwnerMismatch(t *testing.T) {
	s, r := coffeeAndRent(t)
	err := s.DeleteMany(context.Background(), model.NewIDSet("1"), "bob")
	if !errors.Is(err, ErrOwnerMismatch) {
		t.Fatalf("err = %v, want ErrOwnerMismatch", err)
	}
	if r.deletes != 0 {
		t.Errorf("deletes = %d, want 0", r.deletes)
	}
}

func TestStaleLoadAfterOwnerChangeIsDiscarded(t *testing.T) {
	s, r := coffeeAndRent(t)
	r.seed("bob", exp("9", "Bike", "300", "Transport", "2024-01-09"))

	r.beforeFetchReturn = func() {
		if _, err := s.LoadAll(context.Background(), "bob"); err != nil {
			t.Errorf("inner LoadAll: %v", err)
		}
	}
	_, err := s.LoadAll(context.Background(), "ann")
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("err = %v, want ErrSuperseded", err)
	}
	if s.Owner() != "bob" {
		t.Errorf("owner = %q, want bob", s.Owner())
	}
	assertIDs(t, "view", s.View(), "9")
}

func TestDeleteSupersedesInFlightLoad(t *testing.T) {
	s, r := coffeeAndRent(t)

	r.beforeFetchReturn = func() {
		if err := s.DeleteMany(context.Background(), model.NewIDSet("1"), "ann"); err != nil {
			t.Errorf("DeleteMany: %v", err)
		}
	}
	_, err := s.LoadAll(context.Background(), "ann")
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("err = %v, want ErrSuperseded", err)
	}
	assertIDs(t, "view", s.View(), "2")
}

func TestDiscardForgetsOwner(t *testing.T) {
	s, _ := coffeeAndRent(t)
	s.Search("co")
	s.Discard()
	if s.Owner() != "" || s.Loaded() || len(s.All()) != 0 || s.Query() != "" {
		t.Errorf("store not cleared: owner=%q loaded=%v", s.Owner(), s.Loaded())
	}
}

func TestChangeHookSeesCommittedLists(t *testing.T) {
	r := newFakeRemote()
	r.seed("ann", exp("1", "Coffee", "4.50", "Food", "2024-01-05"), exp("2", "Rent", "1200", "Housing", "2024-01-01"))

	var seen [][]model.ID
	s := New(r, WithChangeHook(func(owner string, all []model.Expense) {
		seen = append(seen, ids(all))
	}))
	if _, err := s.LoadAll(context.Background(), "ann"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteMany(context.Background(), model.NewIDSet("2"), "ann"); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || len(seen[0]) != 2 || len(seen[1]) != 1 {
		t.Errorf("hook saw %v", seen)
	}
}

func TestParseFieldAndOrder(t *testing.T) {
	if f, err := ParseField("Amount"); err != nil || f != ByAmount {
		t.Errorf("ParseField(Amount) = %v, %v", f, err)
	}
	if _, err := ParseField("size"); err == nil {
		t.Error("ParseField(size) succeeded")
	}
	if o, err := ParseOrder("asc"); err != nil || o != Ascending {
		t.Errorf("ParseOrder(asc) = %v, %v", o, err)
	}
	if ByAmount.Next() != ByDate {
		t.Error("Next does not wrap")
	}
}
