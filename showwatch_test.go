package showwatch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/showgrid/showwatch/fetch"
	"github.com/showgrid/showwatch/sink"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink counts appends and rows across the run.
type recordingSink struct {
	mu      sync.Mutex
	appends int
	rows    int
	closed  bool
}

func (r *recordingSink) Append(ctx context.Context, recs []sink.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appends++
	r.rows += len(recs)
	return nil
}

func (r *recordingSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestStart_RunsToCompletion(t *testing.T) {
	// fixed clock far in the evening: every synthetic show is behind its
	// stop threshold, so each venue completes after one fetch
	clock := func() time.Time { return time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC) }
	mock := fetch.NewMockAdapter(fetch.MockAdapterOptions{Seed: 7, Now: clock})

	out := &recordingSink{}
	var cbMu sync.Mutex
	var snaps []Snapshot

	w, err := New(
		WithVenues(
			Venue{ID: "101", Name: "Central", RegionCode: "010"},
			Venue{ID: "102", Name: "Riverside", RegionCode: "010"},
		),
		WithStopThreshold(2*time.Hour),
		WithFetcher(mock),
		WithSink(out),
		WithLogger(quietLogger()),
		WithRateInterval(0),
		WithDate("2024-06-01"),
		WithLocation(time.UTC),
		WithSnapshotCallback(func(s Snapshot) {
			cbMu.Lock()
			snaps = append(snaps, s)
			cbMu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(context.Background()) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("start did not return")
	}

	cbMu.Lock()
	defer cbMu.Unlock()
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	for _, s := range snaps {
		if s.Reason != "completed" {
			t.Errorf("venue %s: reason %q, want completed", s.VenueID, s.Reason)
		}
		if s.Rows == 0 {
			t.Errorf("venue %s: zero rows in terminal write", s.VenueID)
		}
		if s.Err != nil {
			t.Errorf("venue %s: append error %v", s.VenueID, s.Err)
		}
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	if out.appends != 2 {
		t.Errorf("sink received %d appends, want 2", out.appends)
	}
	if !out.closed {
		t.Error("sink was not closed")
	}
}

func TestStart_CallbackPanicDoesNotCrashRun(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC) }
	mock := fetch.NewMockAdapter(fetch.MockAdapterOptions{Seed: 7, Now: clock})

	var after int
	w, err := New(
		WithVenue(Venue{ID: "101", Name: "Central", RegionCode: "010"}),
		WithStopThreshold(2*time.Hour),
		WithFetcher(mock),
		WithSink(&recordingSink{}),
		WithLogger(quietLogger()),
		WithRateInterval(0),
		WithDate("2024-06-01"),
		WithLocation(time.UTC),
		WithSnapshotCallback(func(Snapshot) { panic("boom") }),
		WithSnapshotCallback(func(Snapshot) { after++ }),
	)
	if err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(context.Background()) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("start did not return")
	}

	if after != 1 {
		t.Errorf("callback after the panicking one ran %d times, want 1", after)
	}
}

func TestStart_CancelledContextReturns(t *testing.T) {
	mock := fetch.NewMockAdapter(fetch.MockAdapterOptions{Seed: 7})

	w, err := New(
		WithVenue(Venue{ID: "101"}),
		WithStopThreshold(time.Minute),
		WithFetcher(mock),
		WithSink(&recordingSink{}),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Start(ctx); err != nil {
		t.Errorf("start with cancelled context: %v", err)
	}
}

func TestWatcher_Accessors(t *testing.T) {
	mock := fetch.NewMockAdapter(fetch.MockAdapterOptions{Seed: 1})
	w, err := New(
		WithVenue(Venue{ID: "101", Name: "Central"}),
		WithStopThreshold(90*time.Second),
		WithFetcher(mock),
		WithSink(&recordingSink{}),
		WithDate("2024-06-01"),
	)
	if err != nil {
		t.Fatal(err)
	}

	if w.StopThreshold() != 90*time.Second {
		t.Errorf("stop threshold = %s", w.StopThreshold())
	}
	if w.Date() != "2024-06-01" {
		t.Errorf("date = %q", w.Date())
	}

	got := w.Venues()
	if len(got) != 1 || got[0].ID != "101" {
		t.Fatalf("venues = %+v", got)
	}
	// mutating the copy must not affect the watcher
	got[0].ID = "mutated"
	if w.Venues()[0].ID != "101" {
		t.Error("Venues returned a live reference")
	}
}
