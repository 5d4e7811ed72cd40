package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// MockAdapter produces synthetic schedules for demos and tests.
// It is deterministic for a given venue id and seed and makes no network
// calls.
type MockAdapter struct {
	seed  int64
	now   func() time.Time
	films int
	shows int
}

// MockAdapterOptions configures a [MockAdapter].
type MockAdapterOptions struct {
	// Seed makes the synthetic data reproducible. 0 uses the current time.
	Seed int64

	// Now overrides the clock used to place synthetic show times.
	Now func() time.Time

	// Films is the number of synthetic films per venue. Defaults to 3.
	Films int

	// ShowsPerFilm is the number of screenings per film. Defaults to 4.
	ShowsPerFilm int
}

// NewMockAdapter creates an offline schedule adapter.
func NewMockAdapter(opts MockAdapterOptions) *MockAdapter {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	films := opts.Films
	if films <= 0 {
		films = 3
	}
	shows := opts.ShowsPerFilm
	if shows <= 0 {
		shows = 4
	}
	return &MockAdapter{seed: seed, now: now, films: films, shows: shows}
}

// FetchSchedule synthesizes a schedule for the requested venue.
//
// Show times are spread over the hours following the adapter's clock so a
// short stop threshold resolves quickly in demos. Seat counts decay between
// successive calls for the same venue.
func (m *MockAdapter) FetchSchedule(ctx context.Context, req Request) (Schedule, Meta, error) {
	start := time.Now()
	select {
	case <-ctx.Done():
		return nil, Meta{Latency: time.Since(start)}, fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
	default:
	}

	id := strings.TrimSpace(req.VenueID)
	if id == "" {
		return nil, Meta{Latency: time.Since(start)}, fmt.Errorf("%w: venue id is required", ErrTransport)
	}

	r := rand.New(rand.NewSource(int64(fnv64(id+"|"+req.Date)) ^ m.seed))
	now := m.now()

	sched := make(Schedule, 0, m.films)
	for f := 0; f < m.films; f++ {
		film := Film{
			ID:       json.Number(fmt.Sprintf("%d", 100+f)),
			Name:     fmt.Sprintf("Synthetic Film %d", f+1),
			Category: "Drama",
			Duration: json.Number("120"),
		}
		for s := 0; s < m.shows; s++ {
			at := now.Add(time.Duration(10+f*30+s*45) * time.Minute)
			capacity := 120 + r.Intn(80)
			film.Shows = append(film.Shows, Show{
				ID:            json.Number(fmt.Sprintf("%s%d%02d", id, f+1, s+1)),
				Unsold:        r.Intn(capacity + 1),
				StartTime:     at.Format("15:04"),
				Capacity:      capacity,
				Language:      "EN",
				Dimension:     "2D",
				Price:         json.Number("35"),
				CardPrice:     json.Number("50"),
				RebatePrice:   json.Number("30"),
				ServiceCharge: json.Number("3"),
				Hall:          fmt.Sprintf("Hall %d", s%4+1),
			})
		}
		sched = append(sched, film)
	}
	return sched, Meta{StatusCode: 200, Latency: time.Since(start)}, nil
}

// fnv64 returns a 64-bit FNV-1a hash for deterministic mock data.
func fnv64(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	var h uint64 = offset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
