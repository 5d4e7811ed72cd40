// Package fetch defines the upstream schedule fetcher and its failure
// taxonomy, plus two adapters: a networked HTTP JSON adapter and an
// offline deterministic mock.
//
// The fetcher is an external collaborator from the monitor's point of view:
// it owns request dispatch, timeouts and payload decoding, and reports
// failures through four sentinel error classes. The monitor treats all four
// classes identically (one retry consumed); they are distinguished only in
// logs.
package fetch

import (
	"context"
	"encoding/json"
	"time"
)

// Request identifies one schedule fetch.
type Request struct {
	// VenueID is the upstream venue identifier.
	VenueID string

	// RegionCode is the venue's region (city) code.
	RegionCode string

	// Date is the logical run date, formatted YYYY-MM-DD.
	Date string
}

// Show is one screening as decoded from the upstream payload.
//
// Numeric-ish fields use json.Number so that payloads encoding them as
// either numbers or numeric strings both decode.
type Show struct {
	// ID is the upstream show identifier.
	ID json.Number `json:"showPk"`

	// Unsold is the remaining seat count.
	Unsold int `json:"unsold"`

	// StartTime is the start time of day, "HH:mm". It is combined with the
	// run's logical date to produce the show's start instant.
	StartTime string `json:"showTime"`

	// Capacity is the total seat count.
	Capacity int `json:"capacity"`

	Language      string      `json:"lang"`
	Dimension     string      `json:"dimensional"`
	Price         json.Number `json:"price"`
	CardPrice     json.Number `json:"cardPrice"`
	RebatePrice   json.Number `json:"rebatePrice"`
	ServiceCharge json.Number `json:"serviceCharge"`
	Hall          string      `json:"hallName"`
}

// Film is one film entry in the upstream payload, carrying its screenings.
type Film struct {
	ID       json.Number `json:"filmId"`
	Name     string      `json:"film_name"`
	Category string      `json:"film_type_name"`
	// Upstream misspells this field; the tag matches the wire format.
	Duration json.Number `json:"deration"`
	Shows    []Show      `json:"timeShowSectionList"`
}

// Schedule is a decoded schedule payload: a collection of films.
type Schedule []Film

// Meta carries request-level telemetry for logging.
type Meta struct {
	// StatusCode is the HTTP status code, or 0 if no response was received.
	StatusCode int

	// Latency is the total request duration.
	Latency time.Duration
}

// Adapter fetches one venue's schedule for a logical date.
//
// A returned error is one of the four sentinel classes (wrapped), and the
// returned Schedule is non-empty iff the error is nil.
type Adapter interface {
	FetchSchedule(ctx context.Context, req Request) (Schedule, Meta, error)
}
