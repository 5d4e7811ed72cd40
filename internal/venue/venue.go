// Package venue holds the per-venue monitoring state: the shows observed
// so far and the remaining retry budget.
//
// A Venue is created once at roster load and lives for the whole run. It is
// never deleted; once its monitoring finishes it is marked terminal and kept
// in memory. All mutation of a single venue happens from one logical step at
// a time (the orchestrator never processes the same venue concurrently), so
// the types here carry no locks of their own.
package venue

import "time"

// Show is one scheduled screening being tracked.
//
// The descriptive fields and Capacity are captured at first observation and
// never change. StartAt is set exactly once, at creation. SeatsLeft and
// UpdatedAt are overwritten on each merge until the show is frozen.
type Show struct {
	// ID is the upstream show identifier.
	ID string

	// FilmID identifies the film being screened.
	FilmID string

	// FilmName is the film's display name.
	FilmName string

	// FilmCategory is the upstream category/genre name.
	FilmCategory string

	// FilmDuration is the running time as reported upstream.
	FilmDuration string

	// Hall is the screening room name.
	Hall string

	// Language is the audio language.
	Language string

	// Dimension is the projection format (2D, 3D, IMAX...).
	Dimension string

	// Price is the current ticket price.
	Price string

	// OriginalPrice is the undiscounted (card) price.
	OriginalPrice string

	// RebatePrice is the rebate price, if any.
	RebatePrice string

	// ServiceCharge is the per-ticket service charge.
	ServiceCharge string

	// StartAt is the show's start instant. Fixed at creation.
	StartAt time.Time

	// Capacity is the total seat count. Fixed once set.
	Capacity int

	// SeatsLeft is the perishable availability count.
	SeatsLeft int

	// UpdatedAt is when SeatsLeft was last overwritten.
	UpdatedAt time.Time
}

// Venue is one monitored cinema.
type Venue struct {
	// ID is the roster venue identifier.
	ID string

	// Name is the venue's display name.
	Name string

	// RegionCode is the roster region (city) code.
	RegionCode string

	// Shows maps show id to tracked show state. Key uniqueness is the only
	// guarantee; insertion order is irrelevant.
	Shows map[string]*Show

	// RetriesLeft is the remaining fetch-failure budget. Monotonically
	// non-increasing, floor 0. Reaching 0 is terminal.
	RetriesLeft int

	// Terminal is set exactly once, when the venue's single terminal record
	// write has been issued. A terminal venue issues no further fetches.
	Terminal bool
}

// New creates a venue with an empty show map and a full retry budget.
func New(id, name, regionCode string, retryBudget int) *Venue {
	return &Venue{
		ID:          id,
		Name:        name,
		RegionCode:  regionCode,
		Shows:       make(map[string]*Show),
		RetriesLeft: retryBudget,
	}
}

// ShowList returns the venue's shows as a slice. Order is not guaranteed;
// callers that need ordering sort the result themselves.
func (v *Venue) ShowList() []*Show {
	out := make([]*Show, 0, len(v.Shows))
	for _, s := range v.Shows {
		out = append(out, s)
	}
	return out
}
