package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/showgrid/showwatch"
	"github.com/showgrid/showwatch/config"
	"github.com/showgrid/showwatch/fetch"
	"github.com/showgrid/showwatch/roster"
	"github.com/showgrid/showwatch/sink"
)

const shutdownTimeout = 10 * time.Second

// newLogger creates a JSON logger for CLI use.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// runCmd monitors the roster until every cinema is done.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Monitor the roster until every cinema is done",
	Long: `Monitor every cinema in the roster for the configured day.

The monitor will:
  - Load the roster and poll each cinema immediately
  - Rescan each cinema based on its soonest unresolved show
  - Append one terminal snapshot per cinema to the result CSV

The process exits on its own once every cinema has reached its terminal
state, or when interrupted (Ctrl+C / SIGTERM).

Example:
  showwatch run -c config.yaml
  showwatch run -c config.yaml --stop-threshold 120`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	runCmd.Flags().Int("stop-threshold", 0, "stop threshold in seconds before showtime (overrides config)")
	runCmd.Flags().Bool("debug", false, "enable debug logging")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	logger := newLogger(debug)

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	stopSeconds, _ := cmd.Flags().GetInt("stop-threshold")
	stop := cfg.StopThreshold.Duration()
	if stopSeconds > 0 {
		stop = time.Duration(stopSeconds) * time.Second
	}
	if stop <= 0 {
		return fmt.Errorf("a positive stop threshold is required (config stop_threshold or --stop-threshold)")
	}

	entries, err := roster.Load(cfg.Roster)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("roster %q has no usable rows", cfg.Roster)
	}

	date := cfg.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	logger.Info("config loaded",
		"cinemas", len(entries),
		"stop_threshold", stop.String(),
		"adapter", cfg.Adapter,
		"date", date,
	)

	adapter, err := buildAdapter(cfg)
	if err != nil {
		return err
	}

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	out, err := buildSink(ctx, cfg, date, int(stop.Seconds()), logger)
	if err != nil {
		return err
	}

	w, err := showwatch.New(
		showwatch.WithRoster(entries),
		showwatch.WithStopThreshold(stop),
		showwatch.WithRetryBudget(cfg.RetryBudget),
		showwatch.WithFetcher(adapter),
		showwatch.WithSink(out),
		showwatch.WithLogger(logger),
		showwatch.WithMaxConcurrency(cfg.MaxConcurrency),
		showwatch.WithRateInterval(cfg.RateLimit.Duration()),
		showwatch.WithDate(date),
	)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// run until all cinemas are terminal - blocks
	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("monitor error: %w", err)
		}
		logger.Info("run complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("monitor error: %w", err)
			}
			logger.Info("run complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

func buildAdapter(cfg *config.Config) (fetch.Adapter, error) {
	switch cfg.Adapter {
	case "http":
		return fetch.NewHTTPAdapter(fetch.HTTPAdapterOptions{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.FetchTimeout.Duration(),
		})
	default:
		return fetch.NewMockAdapter(fetch.MockAdapterOptions{}), nil
	}
}

func buildSink(ctx context.Context, cfg *config.Config, date string, stopSeconds int, logger *slog.Logger) (sink.Sink, error) {
	csvPath := sink.DefaultPath(cfg.ResultDir, date, stopSeconds)
	csvSink, err := sink.NewCSV(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open result file: %w", err)
	}
	logger.Info("result file ready", "path", csvPath)

	if cfg.Postgres.DSN == "" {
		return csvSink, nil
	}

	pgSink, err := sink.NewPostgres(ctx, sink.PostgresOptions{
		DSN:        cfg.Postgres.DSN,
		Schema:     cfg.Postgres.Schema,
		Batch:      cfg.Postgres.Batch,
		RunID:      uuid.NewString(),
		ViaBouncer: cfg.Postgres.ViaBouncer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres sink: %w", err)
	}
	logger.Info("postgres sink ready", "schema", cfg.Postgres.Schema)

	return sink.Multi{csvSink, pgSink}, nil
}
