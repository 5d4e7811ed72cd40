package monitor

import (
	"sort"
	"time"

	"github.com/showgrid/showwatch/internal/venue"
)

// NextDelay computes the delay until the venue's next poll is warranted.
//
// Shows are considered in ascending start-instant order. For each, the
// candidate delay is startAt - now - stop; shows whose candidate is negative
// have already passed their stop threshold and are no longer a reason to
// poll. The first non-negative candidate is returned; because candidates
// grow with the start instant, it is also the minimum over the whole set,
// so the result is independent of the input ordering.
//
// The second return is false when no show qualifies - every show has passed
// its stop threshold, or the venue has no shows at all. An empty set
// reporting completion immediately is deliberate: a venue that never
// produced a payload still finishes (and is written, possibly as zero
// rows) rather than being polled forever.
func NextDelay(shows []*venue.Show, stop time.Duration, now time.Time) (time.Duration, bool) {
	ordered := make([]*venue.Show, len(shows))
	copy(ordered, shows)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StartAt.Before(ordered[j].StartAt)
	})

	for _, s := range ordered {
		candidate := s.StartAt.Sub(now) - stop
		if candidate < 0 {
			continue
		}
		return candidate, true
	}
	return 0, false
}
