package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/notify"

	"github.com/shopspring/decimal"
)

type fakeSource struct {
	mu        sync.Mutex
	expenses  []model.Expense
	threshold model.Threshold
	err       error
}

func (f *fakeSource) FetchExpenses(context.Context, string) ([]model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Expense(nil), f.expenses...), f.err
}

func (f *fakeSource) Threshold(context.Context, string) (model.Threshold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threshold, nil
}

func (f *fakeSource) add(e model.Expense) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expenses = append(f.expenses, e)
}

type fakeNotifier struct {
	alerts []notify.Alert
}

func (n *fakeNotifier) PublishAlert(_ context.Context, a notify.Alert) error {
	n.alerts = append(n.alerts, a)
	return nil
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Expenses: 10, Total: amount("100.50"), MonthSpend: amount("20")}
	curr := Snapshot{Expenses: 12, Total: amount("130.75"), MonthSpend: amount("50.25")}

	delta := diffSnapshots(prev, curr)
	if delta.Expenses != 2 {
		t.Fatalf("Expenses delta = %d, want 2", delta.Expenses)
	}
	if !delta.Total.Equal(amount("30.25")) {
		t.Fatalf("Total delta = %s, want 30.25", delta.Total)
	}
	if !delta.MonthSpend.Equal(amount("30.25")) {
		t.Fatalf("MonthSpend delta = %s, want 30.25", delta.MonthSpend)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{Owner: "ann", Interval: 10 * time.Second, EventsBuffer: 2}, &fakeSource{})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollEmitsThresholdCrossingOnce(t *testing.T) {
	limit := amount("100")
	src := &fakeSource{
		expenses:  []model.Expense{{ID: "1", Name: "Groceries", Amount: amount("80"), Category: "Food", Date: "2024-05-03"}},
		threshold: model.Threshold{Amount: &limit},
	}
	n := &fakeNotifier{}
	s := New(Config{Owner: "ann"}, src, WithNotifier(n))
	s.now = func() time.Time { return time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	s.pollOnce(ctx)
	src.add(model.Expense{ID: "2", Name: "Shoes", Amount: amount("45"), Category: "Clothes", Date: "2024-05-19"})
	s.pollOnce(ctx)
	src.add(model.Expense{ID: "3", Name: "Socks", Amount: amount("5"), Category: "Clothes", Date: "2024-05-20"})
	s.pollOnce(ctx)

	var types []string
	s.mu.RLock()
	for _, ev := range s.events {
		types = append(types, ev.Type)
	}
	s.mu.RUnlock()

	want := []string{EventSnapshot, EventSpendDelta, EventThresholdExceeded, EventSpendDelta}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("events = %v, want %v", types, want)
		}
	}

	if len(n.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(n.alerts))
	}
	a := n.alerts[0]
	if a.Owner != "ann" || a.Month != "2024-05" || !a.Spent.Equal(amount("125")) {
		t.Errorf("alert = %+v", a)
	}
	if st := s.snapshotStatus(); st.AlertsSent != 1 || !st.Summary.Exceeded {
		t.Errorf("status = %+v", st)
	}
}

func TestPollErrorKeepsLastSnapshot(t *testing.T) {
	src := &fakeSource{expenses: []model.Expense{{ID: "1", Amount: amount("3"), Date: "2024-05-01"}}}
	s := New(Config{Owner: "ann"}, src)
	s.pollOnce(context.Background())

	src.mu.Lock()
	src.err = errors.New("connection refused")
	src.mu.Unlock()
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError == "" || st.PollCount != 2 {
		t.Errorf("status = %+v", st)
	}
	if st.Summary.Expenses != 1 {
		t.Errorf("snapshot lost after failed poll: %+v", st.Summary)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s := New(Config{Owner: "ann"}, &fakeSource{})
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Owner != "ann" || st.PollCount != 1 {
		t.Errorf("status = %+v", st)
	}
}
