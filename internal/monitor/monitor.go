// Package monitor contains the deadline-aware rescan scheduler, the
// incremental state merger, the retry controller and the orchestrator loop
// that drives them.
//
// Each venue moves independently through: fetch -> merge -> reschedule or
// terminal write (on success), or fetch -> retry decision (on failure).
// Work is passed as explicit "poll venue X" tasks on a channel; deferred
// rescans arm a single-shot timer whose only job is to enqueue such a task.
// A venue never has more than one task or fetch in flight, so its state is
// never touched concurrently. The run ends on its own once every venue is
// terminal.
package monitor

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/showgrid/showwatch/fetch"
	"github.com/showgrid/showwatch/internal/venue"
	"github.com/showgrid/showwatch/sink"
)

const (
	defaultMaxConcurrency = 4

	// instantFormat renders start/update/capture instants in output rows.
	instantFormat = "2006-01-02 15:04"
)

// Reason says why a venue reached its terminal state.
type Reason string

const (
	// ReasonCompleted: every show passed its stop threshold (or the venue
	// never had any).
	ReasonCompleted Reason = "completed"

	// ReasonRetired: the retry budget was exhausted.
	ReasonRetired Reason = "retired"
)

// Event is emitted once per venue, when its terminal write is issued.
type Event struct {
	VenueID    string
	VenueName  string
	RegionCode string
	Reason     Reason

	// Rows is the number of snapshot rows in the terminal write.
	Rows int

	// Err is the terminal append error, if the write failed.
	Err error
}

// Config assembles the orchestrator's collaborators.
type Config struct {
	Store   *venue.Store
	Fetcher fetch.Adapter
	Sink    sink.Sink
	Logger  *slog.Logger

	// StopThreshold is how long before a show's start instant polling for
	// that show ceases.
	StopThreshold time.Duration

	// MaxConcurrency bounds concurrently processed venues. Defaults to 4.
	MaxConcurrency int

	// RateInterval spaces out fetch dispatches globally. Zero disables the
	// gate.
	RateInterval time.Duration

	// Date is the logical run date, YYYY-MM-DD.
	Date string

	// Location resolves payload times of day into instants. Defaults to
	// time.Local.
	Location *time.Location

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Monitor drives all venues from first poll to terminal write.
type Monitor struct {
	store   *venue.Store
	fetcher fetch.Adapter
	sink    sink.Sink
	logger  *slog.Logger

	stop        time.Duration
	maxWorkers  int
	rateEvery   time.Duration
	date        string
	loc         *time.Location
	now         func() time.Time

	tasks  chan string
	events chan Event

	mu       sync.Mutex
	terminal int
	total    int
	allDone  chan struct{}
	doneOnce sync.Once
}

// New creates a Monitor. The store, fetcher and sink must be non-nil and
// the stop threshold positive; the caller (the facade) validates that.
func New(cfg Config) *Monitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	workers := cfg.MaxConcurrency
	if workers <= 0 {
		workers = defaultMaxConcurrency
	}
	total := cfg.Store.Len()

	return &Monitor{
		store:      cfg.Store,
		fetcher:    cfg.Fetcher,
		sink:       cfg.Sink,
		logger:     logger,
		stop:       cfg.StopThreshold,
		maxWorkers: workers,
		rateEvery:  cfg.RateInterval,
		date:       cfg.Date,
		loc:        loc,
		now:        now,
		// one slot per venue: a venue never has more than one pending task,
		// so enqueues cannot block
		tasks:   make(chan string, total+1),
		events:  make(chan Event, total+1),
		allDone: make(chan struct{}),
	}
}

// Events returns the terminal-event channel. It is closed when Run returns.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Run processes every venue to its terminal state, then returns. It also
// returns when ctx is cancelled; venues not yet terminal at that point get
// no terminal write.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.events)

	m.mu.Lock()
	m.total = m.store.Len()
	total := m.total
	m.mu.Unlock()

	if total == 0 {
		m.logger.Info("no venues to monitor")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var rate *time.Ticker
	if m.rateEvery > 0 {
		rate = time.NewTicker(m.rateEvery)
		defer rate.Stop()
	}

	var wg sync.WaitGroup
	for i := 0; i < m.maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case id := <-m.tasks:
					m.step(runCtx, rate, id)
				}
			}
		}()
	}

	for _, id := range m.store.IDs() {
		m.enqueue(runCtx, id)
	}
	m.logger.Info("monitoring started", "venues", total, "stop_threshold", m.stop.String())

	select {
	case <-m.allDone:
		m.logger.Info("all venues terminal")
	case <-runCtx.Done():
		m.logger.Warn("run cancelled before all venues finished")
	}

	cancel()
	wg.Wait()
	return nil
}

// enqueue submits a poll task unless the run is over.
func (m *Monitor) enqueue(ctx context.Context, id string) {
	select {
	case <-ctx.Done():
	case m.tasks <- id:
	}
}

// step processes one poll task for one venue: fetch, then merge and
// reschedule on success, or consult the retry controller on failure.
func (m *Monitor) step(ctx context.Context, rate *time.Ticker, id string) {
	v, ok := m.store.Get(id)
	if !ok || v.Terminal {
		return
	}

	if rate != nil {
		select {
		case <-ctx.Done():
			return
		case <-rate.C:
		}
	}

	attrs := []any{
		"venue", v.ID,
		"name", v.Name,
		"region", v.RegionCode,
		"fetch_id", uuid.NewString(),
	}

	sched, meta, err := m.fetcher.FetchSchedule(ctx, fetch.Request{
		VenueID:    v.ID,
		RegionCode: v.RegionCode,
		Date:       m.date,
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("fetch failed",
			append(attrs,
				"class", fetch.Class(err),
				"status", meta.StatusCode,
				"error", err.Error(),
			)...)

		switch Fail(v) {
		case Retire:
			m.logger.Info("retry budget exhausted, writing last successful state", attrs...)
			m.finish(ctx, v, ReasonRetired)
		default:
			m.logger.Info("retrying", append(attrs, "retries_left", v.RetriesLeft)...)
			m.enqueue(ctx, id)
		}
		return
	}

	now := m.now()
	stats := Merge(v, sched, now, m.stop, m.date, m.loc)
	m.logger.Debug("payload merged",
		append(attrs,
			"latency_ms", meta.Latency.Milliseconds(),
			"added", stats.Added,
			"updated", stats.Updated,
			"frozen", stats.Frozen,
			"skipped", stats.Skipped,
			"tracked", len(v.Shows),
		)...)

	delay, more := NextDelay(v.ShowList(), m.stop, now)
	if !more {
		m.finish(ctx, v, ReasonCompleted)
		return
	}

	m.logger.Debug("next poll scheduled", append(attrs, "delay", delay.String())...)
	time.AfterFunc(delay, func() {
		m.enqueue(ctx, id)
	})
}

// finish issues the venue's single terminal write and emits its event.
func (m *Monitor) finish(ctx context.Context, v *venue.Venue, reason Reason) {
	v.Terminal = true

	rows := m.snapshotRecords(v)
	err := m.sink.Append(ctx, rows)

	attrs := []any{"venue", v.ID, "name", v.Name, "region", v.RegionCode, "reason", string(reason), "rows", len(rows)}
	switch {
	case err != nil:
		m.logger.Error("terminal write failed", append(attrs, "error", err.Error())...)
	case len(rows) == 0:
		m.logger.Warn("venue finished with no observed shows", attrs...)
	default:
		m.logger.Info("venue done", attrs...)
	}

	m.events <- Event{
		VenueID:    v.ID,
		VenueName:  v.Name,
		RegionCode: v.RegionCode,
		Reason:     reason,
		Rows:       len(rows),
		Err:        err,
	}

	m.mu.Lock()
	m.terminal++
	done := m.terminal == m.total
	m.mu.Unlock()
	if done {
		m.doneOnce.Do(func() { close(m.allDone) })
	}
}

// snapshotRecords renders the venue's current show state as output rows,
// ordered by start instant then show id.
func (m *Monitor) snapshotRecords(v *venue.Venue) []sink.Record {
	shows := v.ShowList()
	sort.Slice(shows, func(i, j int) bool {
		if shows[i].StartAt.Equal(shows[j].StartAt) {
			return shows[i].ID < shows[j].ID
		}
		return shows[i].StartAt.Before(shows[j].StartAt)
	})

	captured := m.now().In(m.loc).Format(instantFormat)
	rows := make([]sink.Record, 0, len(shows))
	for _, s := range shows {
		rows = append(rows, sink.Record{
			RegionCode:    v.RegionCode,
			VenueID:       v.ID,
			VenueName:     v.Name,
			ShowID:        s.ID,
			FilmID:        s.FilmID,
			FilmName:      s.FilmName,
			FilmCategory:  s.FilmCategory,
			FilmDuration:  s.FilmDuration,
			Hall:          s.Hall,
			Language:      s.Language,
			Dimension:     s.Dimension,
			Price:         s.Price,
			OriginalPrice: s.OriginalPrice,
			RebatePrice:   s.RebatePrice,
			ServiceCharge: s.ServiceCharge,
			StartAt:       s.StartAt.In(m.loc).Format(instantFormat),
			UpdatedAt:     s.UpdatedAt.In(m.loc).Format(instantFormat),
			CapturedAt:    captured,
			SeatsLeft:     strconv.Itoa(s.SeatsLeft),
			Capacity:      strconv.Itoa(s.Capacity),
		})
	}
	return rows
}
