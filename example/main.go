// Demo of the showwatch library against the offline mock adapter.
//
// Run with:
//
//	go run ./example
//
// It monitors two synthetic cinemas with a short stop threshold so the run
// finishes in seconds, writing terminal snapshots to result/.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/showgrid/showwatch"
	"github.com/showgrid/showwatch/fetch"
	"github.com/showgrid/showwatch/sink"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	date := time.Now().Format("2006-01-02")
	out, err := sink.NewCSV(sink.DefaultPath("result", date, 120))
	if err != nil {
		logger.Error("failed to create sink", "error", err)
		os.Exit(1)
	}

	mock := fetch.NewMockAdapter(fetch.MockAdapterOptions{
		Seed: 42,
		// place synthetic shows just past the stop threshold so each venue
		// resolves after one or two polls
		Now: func() time.Time { return time.Now().Add(-3 * time.Hour) },
	})

	w, err := showwatch.New(
		showwatch.WithVenues(
			showwatch.Venue{ID: "101", Name: "Central Plaza", RegionCode: "010"},
			showwatch.Venue{ID: "102", Name: "Riverside", RegionCode: "010"},
		),
		showwatch.WithStopThreshold(120*time.Second),
		showwatch.WithFetcher(mock),
		showwatch.WithSink(out),
		showwatch.WithLogger(logger),
		showwatch.WithRateInterval(200*time.Millisecond),
		showwatch.WithSnapshotCallback(func(s showwatch.Snapshot) {
			fmt.Printf("venue %s (%s): %s, %d rows\n", s.VenueID, s.VenueName, s.Reason, s.Rows)
		}),
	)
	if err != nil {
		logger.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := w.Start(ctx); err != nil {
		logger.Error("watcher error", "error", err)
		os.Exit(1)
	}
}
