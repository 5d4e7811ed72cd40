// Package showwatch monitors a fixed roster of cinema venues for one run,
// polling each venue's schedule until every show is close enough to its
// start instant that further polling is useless, then durably recording the
// final observed availability of every show exactly once per venue.
//
// # Quick Start
//
// Load a roster, pick a fetch adapter and a sink, and start the watcher:
//
//	entries, _ := roster.Load("appdata/cinemas.csv")
//	adapter, _ := fetch.NewHTTPAdapter(fetch.HTTPAdapterOptions{BaseURL: base})
//	out, _ := sink.NewCSV(sink.DefaultPath("result", date, 120))
//
//	w, err := showwatch.New(
//	    showwatch.WithRoster(entries),
//	    showwatch.WithStopThreshold(120 * time.Second),
//	    showwatch.WithFetcher(adapter),
//	    showwatch.WithSink(out),
//	)
//	if err != nil {
//	    slog.Error("failed to create watcher", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	w.Start(ctx) // blocks until every venue is terminal
//
// Start returns on its own once every venue has reached its terminal state;
// there is no explicit shutdown beyond cancelling the context.
//
// # Scheduling model
//
// Each venue is polled immediately, then rescanned after a delay derived
// from the soonest show that has not yet passed the stop threshold. Shows
// within the freeze margin of their start instant stop accepting updates,
// preserving the last-known-good availability captured near showtime.
// Fetch failures consume a per-venue retry budget; exhausting it retires
// the venue with a terminal write of whatever was last merged.
//
// # Architecture
//
// The library is organized as:
//
//   - fetch: upstream schedule adapters (HTTP JSON and offline mock)
//   - sink: append-only snapshot sinks (CSV, Postgres, queued fan-out)
//   - roster: venue roster loading
//   - config: YAML configuration for the CLI
//   - internal/venue: per-venue state and the in-memory store
//   - internal/monitor: rescan scheduler, merger, retry controller and
//     orchestrator loop
//
// The internal packages are not part of the public API and may change
// without notice.
package showwatch
