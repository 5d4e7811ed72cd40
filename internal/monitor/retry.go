package monitor

import "github.com/showgrid/showwatch/internal/venue"

// Decision is the retry controller's verdict after a fetch failure.
type Decision int

const (
	// Requeue re-submits the venue for an immediate fetch retry.
	Requeue Decision = iota

	// Retire triggers the venue's terminal write; no further fetches.
	Retire
)

// String returns the decision name for logging.
func (d Decision) String() string {
	if d == Retire {
		return "retire"
	}
	return "requeue"
}

// Fail consumes one unit of the venue's retry budget and decides what to do
// next. All four fetch failure classes land here and are treated
// identically. The counter never goes below zero; reaching zero retires the
// venue. Requeued venues are retried immediately - no backoff is applied.
func Fail(v *venue.Venue) Decision {
	if v.RetriesLeft > 0 {
		v.RetriesLeft--
	}
	if v.RetriesLeft <= 0 {
		return Retire
	}
	return Requeue
}
