// Package daemon provides the long-running background threshold monitor.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pennywise-app/pennywise/internal/log"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/notify"
	"github.com/pennywise-app/pennywise/internal/report"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Event types.
const (
	EventSnapshot          = "snapshot"
	EventSpendDelta        = "spend_delta"
	EventThresholdExceeded = "threshold_exceeded"
)

// Source is the backend the daemon polls. *api.Client satisfies it.
type Source interface {
	FetchExpenses(ctx context.Context, owner string) ([]model.Expense, error)
	Threshold(ctx context.Context, owner string) (model.Threshold, error)
}

// Notifier receives threshold alerts. *notify.Publisher satisfies it.
type Notifier interface {
	PublishAlert(ctx context.Context, a notify.Alert) error
}

// SnapshotSink stores each successful poll, e.g. the offline cache.
type SnapshotSink interface {
	SaveSnapshot(owner string, expenses []model.Expense, at time.Time) error
	SaveThreshold(owner string, th model.Threshold, at time.Time) error
}

// Config controls the daemon runtime behavior.
type Config struct {
	Owner        string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Snapshot is the spending state of one poll.
type Snapshot struct {
	At          time.Time        `json:"at"`
	Month       string           `json:"month"`
	Expenses    int              `json:"expenses"`
	Total       decimal.Decimal  `json:"total"`
	MonthSpend  decimal.Decimal  `json:"month_spend"`
	Threshold   *decimal.Decimal `json:"threshold,omitempty"`
	UsedPercent float64          `json:"used_percent"`
	Exceeded    bool             `json:"exceeded"`
}

// Delta captures snapshot changes between polls.
type Delta struct {
	Expenses   int             `json:"expenses"`
	Total      decimal.Decimal `json:"total"`
	MonthSpend decimal.Decimal `json:"month_spend"`
}

func (d Delta) isZero() bool {
	return d.Expenses == 0 && d.Total.IsZero() && d.MonthSpend.IsZero()
}

// Event is emitted whenever the snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	Owner           string    `json:"owner"`
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
	AlertsSent      int64     `json:"alerts_sent"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg      Config
	source   Source
	notifier Notifier
	sink     SnapshotSink
	log      *log.Logger
	now      func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event
	alertsSent  int64

	nextSubID int
	subs      map[int]chan Event
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes threshold alerts through n.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithSink records every successful poll in sink.
func WithSink(sink SnapshotSink) Option { return func(s *Service) { s.sink = sink } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.log = l.WithComponent(log.ComponentDaemon) }
}

// New returns a daemon service polling src.
func New(cfg Config, src Source, opts ...Option) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	s := &Service{
		cfg:       cfg,
		source:    src,
		log:       log.Discard(),
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("daemon started", log.FieldOwner, s.cfg.Owner, "addr", s.cfg.Addr, "interval", s.cfg.Interval.String())

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// fetch loads expenses and threshold in parallel.
func (s *Service) fetch(ctx context.Context) ([]model.Expense, model.Threshold, error) {
	var (
		expenses []model.Expense
		th       model.Threshold
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.source.FetchExpenses(gctx, s.cfg.Owner)
		return err
	})
	g.Go(func() error {
		var err error
		th, err = s.source.Threshold(gctx, s.cfg.Owner)
		return err
	})
	err := g.Wait()
	return expenses, th, err
}

func (s *Service) pollOnce(ctx context.Context) {
	expenses, th, err := s.fetch(ctx)
	now := s.now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Warn("poll failed", log.FieldError, err)
		return
	}

	if s.sink != nil {
		if err := s.sink.SaveSnapshot(s.cfg.Owner, expenses, now); err != nil {
			s.log.Warn("saving snapshot", log.FieldError, err)
		}
		if err := s.sink.SaveThreshold(s.cfg.Owner, th, now); err != nil {
			s.log.Warn("saving threshold", log.FieldError, err)
		}
	}

	snap := buildSnapshot(expenses, th, now)

	var toPublish []Event
	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		toPublish = append(toPublish, s.newEventLocked(EventSnapshot, now, snap, Delta{}))
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		toPublish = append(toPublish, s.newEventLocked(EventSpendDelta, now, snap, delta))
	}
	if crossed(prev, prevExists, snap) {
		toPublish = append(toPublish, s.newEventLocked(EventThresholdExceeded, now, snap, diffSnapshots(prev, snap)))
	}
	s.mu.Unlock()

	for _, ev := range toPublish {
		s.publishEvent(ev)
		if ev.Type == EventThresholdExceeded {
			s.sendAlert(ctx, snap)
		}
	}
}

func (s *Service) newEventLocked(typ string, at time.Time, snap Snapshot, d Delta) Event {
	s.nextEventID++
	return Event{ID: s.nextEventID, Type: typ, Timestamp: at, Snapshot: snap, Delta: d}
}

func (s *Service) sendAlert(ctx context.Context, snap Snapshot) {
	if s.notifier == nil || snap.Threshold == nil {
		return
	}
	a := notify.Alert{
		Owner:       s.cfg.Owner,
		Month:       snap.Month,
		Spent:       snap.MonthSpend,
		Threshold:   *snap.Threshold,
		UsedPercent: snap.UsedPercent,
		At:          snap.At,
	}
	if err := s.notifier.PublishAlert(ctx, a); err != nil {
		s.log.Warn("publishing alert", log.FieldError, err)
		return
	}
	s.mu.Lock()
	s.alertsSent++
	s.mu.Unlock()
}

// crossed reports whether snap newly exceeds the threshold: first poll,
// a new month, or a previous poll under the limit.
func crossed(prev Snapshot, prevExists bool, snap Snapshot) bool {
	if !snap.Exceeded {
		return false
	}
	return !prevExists || prev.Month != snap.Month || !prev.Exceeded
}

func buildSnapshot(expenses []model.Expense, th model.Threshold, at time.Time) Snapshot {
	totals := report.CategoryTotals(expenses)
	spend := report.MonthSpend(expenses, at)
	st := report.ThresholdStatus(th, at, spend)
	return Snapshot{
		At:          at,
		Month:       st.Month.Format("2006-01"),
		Expenses:    totals.Count,
		Total:       totals.Grand,
		MonthSpend:  spend,
		Threshold:   th.Amount,
		UsedPercent: st.UsedPercent,
		Exceeded:    st.Exceeded,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Expenses:   curr.Expenses - prev.Expenses,
		Total:      curr.Total.Sub(prev.Total),
		MonthSpend: curr.MonthSpend.Sub(prev.MonthSpend),
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		Owner:           s.cfg.Owner,
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
		AlertsSent:      s.alertsSent,
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
