package showwatch

import (
	"testing"
	"time"

	"github.com/showgrid/showwatch/fetch"
	"github.com/showgrid/showwatch/roster"
)

func validOptions() []Option {
	return []Option{
		WithVenue(Venue{ID: "101", Name: "Central", RegionCode: "010"}),
		WithStopThreshold(120 * time.Second),
		WithFetcher(fetch.NewMockAdapter(fetch.MockAdapterOptions{Seed: 1})),
		WithSink(&recordingSink{}),
	}
}

func TestNew_Valid(t *testing.T) {
	w, err := New(validOptions()...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if w == nil {
		t.Fatal("nil watcher")
	}
	if w.Date() == "" {
		t.Error("date not defaulted")
	}
}

func TestNew_Validation(t *testing.T) {
	mock := fetch.NewMockAdapter(fetch.MockAdapterOptions{Seed: 1})

	tests := []struct {
		name string
		opts []Option
	}{
		{"no venues", []Option{
			WithStopThreshold(time.Minute), WithFetcher(mock), WithSink(&recordingSink{}),
		}},
		{"no stop threshold", []Option{
			WithVenue(Venue{ID: "101"}), WithFetcher(mock), WithSink(&recordingSink{}),
		}},
		{"no fetcher", []Option{
			WithVenue(Venue{ID: "101"}), WithStopThreshold(time.Minute), WithSink(&recordingSink{}),
		}},
		{"no sink", []Option{
			WithVenue(Venue{ID: "101"}), WithStopThreshold(time.Minute), WithFetcher(mock),
		}},
		{"empty venue id", append(validOptions(), WithVenue(Venue{ID: ""}))},
		{"duplicate venue id", append(validOptions(), WithVenue(Venue{ID: "101"}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOption_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero stop threshold", WithStopThreshold(0)},
		{"negative stop threshold", WithStopThreshold(-time.Second)},
		{"zero retry budget", WithRetryBudget(0)},
		{"nil fetcher", WithFetcher(nil)},
		{"nil sink", WithSink(nil)},
		{"nil logger", WithLogger(nil)},
		{"zero concurrency", WithMaxConcurrency(0)},
		{"negative rate interval", WithRateInterval(-time.Second)},
		{"malformed date", WithDate("06/01/2024")},
		{"nil location", WithLocation(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(append(validOptions(), tt.opt)...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWithRoster(t *testing.T) {
	entries := []roster.Entry{
		{ID: "101", Name: "Central", RegionCode: "010"},
		{ID: "102", Name: "Riverside", RegionCode: "020"},
	}

	w, err := New(
		WithRoster(entries),
		WithStopThreshold(time.Minute),
		WithFetcher(fetch.NewMockAdapter(fetch.MockAdapterOptions{Seed: 1})),
		WithSink(&recordingSink{}),
	)
	if err != nil {
		t.Fatal(err)
	}

	got := w.Venues()
	if len(got) != 2 {
		t.Fatalf("got %d venues, want 2", len(got))
	}
	if got[1].ID != "102" || got[1].RegionCode != "020" {
		t.Errorf("venue 1 = %+v", got[1])
	}
}

func TestWithSnapshotCallback_NilIgnored(t *testing.T) {
	w, err := New(append(validOptions(), WithSnapshotCallback(nil))...)
	if err != nil {
		t.Fatalf("nil callback should be ignored: %v", err)
	}
	if len(w.callbacks) != 0 {
		t.Errorf("got %d callbacks, want 0", len(w.callbacks))
	}
}

func TestWithRateInterval_ZeroAllowed(t *testing.T) {
	if _, err := New(append(validOptions(), WithRateInterval(0))...); err != nil {
		t.Errorf("zero rate interval should be valid: %v", err)
	}
}
