package showwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/showgrid/showwatch/fetch"
	"github.com/showgrid/showwatch/internal/monitor"
	"github.com/showgrid/showwatch/internal/venue"
	"github.com/showgrid/showwatch/roster"
	"github.com/showgrid/showwatch/sink"
)

const (
	defaultRetryBudget    = 20
	defaultMaxConcurrency = 4
	defaultRateInterval   = time.Second
	defaultSinkQueueDepth = 64
)

// Venue identifies one monitored cinema.
type Venue struct {
	// ID is the upstream venue identifier.
	ID string

	// Name is the venue's display name.
	Name string

	// RegionCode is the venue's region (city) code.
	RegionCode string
}

// Snapshot describes one venue's terminal write, passed to callbacks
// registered with [WithSnapshotCallback].
type Snapshot struct {
	// VenueID, VenueName and RegionCode identify the venue.
	VenueID    string
	VenueName  string
	RegionCode string

	// Reason is "completed" (all shows passed their stop threshold) or
	// "retired" (retry budget exhausted).
	Reason string

	// Rows is the number of show rows in the terminal write. Zero means
	// the venue finished without any observed shows.
	Rows int

	// Err is the terminal append error, if the write failed.
	Err error
}

// Watcher is the main orchestrator handle. Create one with [New] and run
// it with [Watcher.Start].
type Watcher struct {
	venues         []Venue
	stopThreshold  time.Duration
	retryBudget    int
	fetcher        fetch.Adapter
	out            sink.Sink
	logger         *slog.Logger
	maxConcurrency int
	rateInterval   time.Duration
	date           string
	location       *time.Location
	callbacks      []func(Snapshot)
}

// New creates a [Watcher] from the given options.
//
// Required: at least one venue ([WithRoster] or [WithVenue]), a positive
// stop threshold ([WithStopThreshold]), a fetch adapter ([WithFetcher])
// and a sink ([WithSink]). Defaults: retry budget 20, max concurrency 4,
// one fetch per second, logical date = today in the local time zone.
func New(opts ...Option) (*Watcher, error) {
	cfg := &watchConfig{
		retryBudget:    defaultRetryBudget,
		maxConcurrency: defaultMaxConcurrency,
		rateInterval:   defaultRateInterval,
		location:       time.Local,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.venues) == 0 {
		return nil, errors.New("at least one venue is required")
	}
	if cfg.stopThreshold <= 0 {
		return nil, errors.New("a positive stop threshold is required")
	}
	if cfg.fetcher == nil {
		return nil, errors.New("a fetch adapter is required")
	}
	if cfg.sink == nil {
		return nil, errors.New("a sink is required")
	}

	seen := make(map[string]bool, len(cfg.venues))
	for _, v := range cfg.venues {
		if v.ID == "" {
			return nil, errors.New("venue id cannot be empty")
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("duplicate venue id: %q", v.ID)
		}
		seen[v.ID] = true
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	date := cfg.date
	if date == "" {
		date = time.Now().In(cfg.location).Format("2006-01-02")
	}

	return &Watcher{
		venues:         cfg.venues,
		stopThreshold:  cfg.stopThreshold,
		retryBudget:    cfg.retryBudget,
		fetcher:        cfg.fetcher,
		out:            cfg.sink,
		logger:         logger,
		maxConcurrency: cfg.maxConcurrency,
		rateInterval:   cfg.rateInterval,
		date:           date,
		location:       cfg.location,
		callbacks:      cfg.callbacks,
	}, nil
}

// Start monitors every venue to its terminal state, then returns.
//
// Start blocks until either all venues are terminal (the natural end of a
// run) or ctx is cancelled. All log lines carry a per-run id. The sink is
// wrapped in a single-writer queue so terminal writes from concurrently
// finishing venues never interleave; the queue is drained and the sink
// closed before Start returns.
func (w *Watcher) Start(ctx context.Context) error {
	runID := uuid.NewString()
	logger := w.logger.With("run_id", runID)

	logger.Info("showwatch starting",
		"venues", len(w.venues),
		"stop_threshold", w.stopThreshold.String(),
		"retry_budget", w.retryBudget,
		"date", w.date,
	)

	if ctx.Err() != nil {
		return nil
	}

	store := venue.NewStore()
	for _, v := range w.venues {
		store.Add(venue.New(v.ID, v.Name, v.RegionCode, w.retryBudget))
	}

	queued := sink.NewQueued(w.out, defaultSinkQueueDepth)

	mon := monitor.New(monitor.Config{
		Store:          store,
		Fetcher:        w.fetcher,
		Sink:           queued,
		Logger:         logger,
		StopThreshold:  w.stopThreshold,
		MaxConcurrency: w.maxConcurrency,
		RateInterval:   w.rateInterval,
		Date:           w.date,
		Location:       w.location,
	})

	// consume terminal events: fan out to snapshot callbacks
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range mon.Events() {
			snap := Snapshot{
				VenueID:    ev.VenueID,
				VenueName:  ev.VenueName,
				RegionCode: ev.RegionCode,
				Reason:     string(ev.Reason),
				Rows:       ev.Rows,
				Err:        ev.Err,
			}
			for _, cb := range w.callbacks {
				invokeCallbackSafe(cb, snap, logger)
			}
		}
	}()

	runErr := mon.Run(ctx)
	wg.Wait()

	if err := queued.Close(); err != nil {
		logger.Error("sink close failed", "error", err.Error())
		if runErr == nil {
			runErr = fmt.Errorf("sink close: %w", err)
		}
	}

	logger.Info("showwatch stopped")
	return runErr
}

// Venues returns a copy of the configured venue set.
func (w *Watcher) Venues() []Venue {
	cp := make([]Venue, len(w.venues))
	copy(cp, w.venues)
	return cp
}

// StopThreshold returns the configured stop threshold.
func (w *Watcher) StopThreshold() time.Duration {
	return w.stopThreshold
}

// Date returns the run's logical date, YYYY-MM-DD.
func (w *Watcher) Date() string {
	return w.date
}

// FromRoster converts roster entries into watcher venues.
func FromRoster(entries []roster.Entry) []Venue {
	out := make([]Venue, 0, len(entries))
	for _, e := range entries {
		out = append(out, Venue{ID: e.ID, Name: e.Name, RegionCode: e.RegionCode})
	}
	return out
}

// invokeCallbackSafe calls a snapshot callback with panic recovery.
// Panics are logged with a correlation id; they do not crash the run.
func invokeCallbackSafe(cb func(Snapshot), snap Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("snapshot callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"venue", snap.VenueID,
			)
		}
	}()
	cb(snap)
}
