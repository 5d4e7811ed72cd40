package showwatch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/showgrid/showwatch/fetch"
	"github.com/showgrid/showwatch/roster"
	"github.com/showgrid/showwatch/sink"
)

// watchConfig holds mutable state during Watcher construction.
type watchConfig struct {
	venues         []Venue
	stopThreshold  time.Duration
	retryBudget    int
	fetcher        fetch.Adapter
	sink           sink.Sink
	logger         *slog.Logger
	maxConcurrency int
	rateInterval   time.Duration
	date           string
	location       *time.Location
	callbacks      []func(Snapshot)
}

// Option configures a [Watcher] during construction.
//
// Options return an error if validation fails. Built-in options:
// [WithVenue], [WithVenues], [WithRoster], [WithStopThreshold],
// [WithRetryBudget], [WithFetcher], [WithSink], [WithLogger],
// [WithMaxConcurrency], [WithRateInterval], [WithDate], [WithLocation],
// [WithSnapshotCallback].
type Option func(*watchConfig) error

// WithVenue adds a single venue to the monitored set.
func WithVenue(v Venue) Option {
	return func(cfg *watchConfig) error {
		cfg.venues = append(cfg.venues, v)
		return nil
	}
}

// WithVenues adds multiple venues to the monitored set.
func WithVenues(venues ...Venue) Option {
	return func(cfg *watchConfig) error {
		cfg.venues = append(cfg.venues, venues...)
		return nil
	}
}

// WithRoster adds every roster entry to the monitored set.
//
// Equivalent to WithVenues(FromRoster(entries)...).
func WithRoster(entries []roster.Entry) Option {
	return func(cfg *watchConfig) error {
		cfg.venues = append(cfg.venues, FromRoster(entries)...)
		return nil
	}
}

// WithStopThreshold sets how long before a show's start instant polling
// for that show ceases. Required; must be positive.
func WithStopThreshold(d time.Duration) Option {
	return func(cfg *watchConfig) error {
		if d <= 0 {
			return errors.New("stop threshold must be positive")
		}
		cfg.stopThreshold = d
		return nil
	}
}

// WithRetryBudget sets how many consecutive fetch failures a venue
// tolerates before being retired. Defaults to 20.
func WithRetryBudget(n int) Option {
	return func(cfg *watchConfig) error {
		if n < 1 {
			return errors.New("retry budget must be at least 1")
		}
		cfg.retryBudget = n
		return nil
	}
}

// WithFetcher sets the upstream schedule adapter. Required.
func WithFetcher(a fetch.Adapter) Option {
	return func(cfg *watchConfig) error {
		if a == nil {
			return errors.New("fetcher cannot be nil")
		}
		cfg.fetcher = a
		return nil
	}
}

// WithSink sets the terminal snapshot destination. Required.
//
// The watcher wraps the sink in a single-writer queue, so the sink itself
// does not need to be safe for concurrent use.
func WithSink(s sink.Sink) Option {
	return func(cfg *watchConfig) error {
		if s == nil {
			return errors.New("sink cannot be nil")
		}
		cfg.sink = s
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *watchConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithMaxConcurrency bounds how many venues are processed at once.
// Defaults to 4.
func WithMaxConcurrency(n int) Option {
	return func(cfg *watchConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithRateInterval spaces fetch dispatches globally: at most one fetch is
// started per interval across all venues. Zero disables the gate.
// Defaults to one second.
func WithRateInterval(d time.Duration) Option {
	return func(cfg *watchConfig) error {
		if d < 0 {
			return errors.New("rate interval cannot be negative")
		}
		cfg.rateInterval = d
		return nil
	}
}

// WithDate overrides the run's logical date (YYYY-MM-DD). Payload show
// times are resolved against this date. Defaults to today.
func WithDate(date string) Option {
	return func(cfg *watchConfig) error {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("invalid date %q: %w", date, err)
		}
		cfg.date = date
		return nil
	}
}

// WithLocation sets the time zone used to resolve payload show times and
// format output instants. Defaults to [time.Local].
func WithLocation(loc *time.Location) Option {
	return func(cfg *watchConfig) error {
		if loc == nil {
			return errors.New("location cannot be nil")
		}
		cfg.location = loc
		return nil
	}
}

// WithSnapshotCallback registers a function invoked after each venue's
// terminal write.
//
// Callbacks run in registration order from a single goroutine. Panics are
// recovered and logged; they do not crash the run. Nil callbacks are
// silently ignored.
func WithSnapshotCallback(cb func(Snapshot)) Option {
	return func(cfg *watchConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}
