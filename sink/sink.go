// Package sink provides durable, append-only destinations for terminal
// show snapshots.
//
// Three implementations are provided: a CSV file sink matching the daily
// capture format, a Postgres sink for batch inserts, and a bounded
// single-writer queue that serializes appends from concurrent venue
// processing so rows are never torn.
package sink

import "context"

// Sentinel is rendered in place of missing or empty field values.
const Sentinel = "n/a"

// Record is one show snapshot row. All fields are pre-formatted strings;
// empty values are rendered as [Sentinel] by the sinks.
type Record struct {
	RegionCode    string
	VenueID       string
	VenueName     string
	ShowID        string
	FilmID        string
	FilmName      string
	FilmCategory  string
	FilmDuration  string
	Hall          string
	Language      string
	Dimension     string
	Price         string
	OriginalPrice string
	RebatePrice   string
	ServiceCharge string
	StartAt       string
	UpdatedAt     string
	CapturedAt    string
	SeatsLeft     string
	Capacity      string
}

// fields returns the record's values in output column order.
func (r Record) fields() []string {
	return []string{
		r.RegionCode, r.VenueID, r.VenueName, r.ShowID,
		r.FilmID, r.FilmName, r.FilmCategory, r.FilmDuration,
		r.Hall, r.Language, r.Dimension,
		r.Price, r.OriginalPrice, r.RebatePrice, r.ServiceCharge,
		r.StartAt, r.UpdatedAt, r.CapturedAt,
		r.SeatsLeft, r.Capacity,
	}
}

// columns is the output header, aligned with [Record.fields].
var columns = []string{
	"cityCode", "cinemaId", "cinemaName", "showId",
	"filmId", "filmName", "filmCategory", "filmDuration",
	"hallName", "language", "dimension",
	"price", "originalPrice", "rebatePrice", "serviceCharge",
	"showTime", "updateTime", "captureTime",
	"ticketLeft", "ticketCapacity",
}

// Sink is an append-only destination for snapshot records.
//
// Append must be atomic per call: rows from one call never interleave with
// rows from another. Appending zero records is a no-op.
type Sink interface {
	Append(ctx context.Context, recs []Record) error
	Close() error
}

// Multi fans appends out to several sinks in order.
type Multi []Sink

// Append writes the records to every sink, returning the first error.
func (m Multi) Append(ctx context.Context, recs []Record) error {
	for _, s := range m {
		if err := s.Append(ctx, recs); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, returning the first error.
func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
