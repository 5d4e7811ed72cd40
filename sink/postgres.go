package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPGBatch = 200

// Postgres appends snapshot rows to a single table using batched inserts.
//
// The table is created on first use. Rows are keyed by (run_id, venue_id,
// show_id) with ON CONFLICT DO NOTHING, so re-running a partially written
// run never duplicates rows.
type Postgres struct {
	pool   *pgxpool.Pool
	schema string
	batch  int
	runID  string
}

// PostgresOptions configures a [Postgres] sink.
type PostgresOptions struct {
	// DSN is the Postgres connection string (required).
	DSN string

	// Schema is the target schema. Defaults to "public".
	Schema string

	// Batch is the insert batch size. Defaults to 200.
	Batch int

	// RunID scopes this process invocation's rows.
	RunID string

	// MaxConns limits the pool size. Defaults to 2.
	MaxConns int

	// ViaBouncer forces the simple protocol for PgBouncer transaction
	// pooling.
	ViaBouncer bool
}

// NewPostgres opens a connection pool and ensures the snapshots table
// exists.
func NewPostgres(ctx context.Context, opts PostgresOptions) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)
	if opts.ViaBouncer {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	schema := opts.Schema
	if schema == "" {
		schema = "public"
	}
	batch := opts.Batch
	if batch <= 0 {
		batch = defaultPGBatch
	}

	p := &Postgres{pool: pool, schema: schema, batch: batch, runID: opts.RunID}
	if err := p.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.show_snapshots (
	run_id         text NOT NULL,
	region_code    text NOT NULL,
	venue_id       text NOT NULL,
	venue_name     text,
	show_id        text NOT NULL,
	film_id        text,
	film_name      text,
	film_category  text,
	film_duration  text,
	hall_name      text,
	language       text,
	dimension      text,
	price          text,
	original_price text,
	rebate_price   text,
	service_charge text,
	show_time      text,
	update_time    text,
	capture_time   text,
	ticket_left    text,
	ticket_capacity text,
	inserted_at    timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, venue_id, show_id)
)`, pgx.Identifier{p.schema}.Sanitize())

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure snapshots table: %w", err)
	}
	return nil
}

// Append inserts the records in batches. Appending zero records is a no-op.
func (p *Postgres) Append(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	stmt := fmt.Sprintf(`
INSERT INTO %s.show_snapshots (
	run_id, region_code, venue_id, venue_name, show_id,
	film_id, film_name, film_category, film_duration,
	hall_name, language, dimension,
	price, original_price, rebate_price, service_charge,
	show_time, update_time, capture_time, ticket_left, ticket_capacity
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
ON CONFLICT (run_id, venue_id, show_id) DO NOTHING`,
		pgx.Identifier{p.schema}.Sanitize())

	for start := 0; start < len(recs); start += p.batch {
		end := start + p.batch
		if end > len(recs) {
			end = len(recs)
		}

		b := &pgx.Batch{}
		for _, r := range recs[start:end] {
			b.Queue(stmt,
				p.runID, r.RegionCode, r.VenueID, r.VenueName, r.ShowID,
				r.FilmID, r.FilmName, r.FilmCategory, r.FilmDuration,
				r.Hall, r.Language, r.Dimension,
				r.Price, r.OriginalPrice, r.RebatePrice, r.ServiceCharge,
				r.StartAt, r.UpdatedAt, r.CapturedAt, r.SeatsLeft, r.Capacity,
			)
		}
		br := p.pool.SendBatch(ctx, b)
		if err := br.Close(); err != nil {
			return fmt.Errorf("insert snapshot batch: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
