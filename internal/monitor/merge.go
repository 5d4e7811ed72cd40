package monitor

import (
	"time"

	"github.com/showgrid/showwatch/fetch"
	"github.com/showgrid/showwatch/internal/venue"
)

// FreezeMargin is subtracted from the stop threshold to form the freeze
// threshold. The freeze deliberately fires later than the point at which
// the scheduler stops requesting new data, so a stale payload arriving
// near showtime cannot clobber the last-known-good snapshot.
const FreezeMargin = 300 * time.Second

// MergeStats summarizes one merge for logging.
type MergeStats struct {
	Added   int
	Updated int
	Frozen  int
	Skipped int
}

// Merge folds a decoded schedule payload into the venue's show state.
//
// Unknown show ids create a new tracked show with all descriptive fields
// taken from the payload; the start instant is parsed from the payload's
// time of day combined with the logical date and is never modified
// afterwards. Known ids whose start instant satisfies
// startAt - now < stop - FreezeMargin are frozen and skipped entirely;
// otherwise the seat count and update instant are overwritten (last write
// wins). Shows whose start time fails to parse are skipped and counted.
//
// Merge touches nothing outside the given venue.
func Merge(v *venue.Venue, sched fetch.Schedule, now time.Time, stop time.Duration, date string, loc *time.Location) MergeStats {
	if loc == nil {
		loc = time.Local
	}
	freeze := stop - FreezeMargin

	var stats MergeStats
	for _, film := range sched {
		for _, s := range film.Shows {
			id := s.ID.String()
			if id == "" {
				stats.Skipped++
				continue
			}

			if existing, ok := v.Shows[id]; ok {
				if existing.StartAt.Sub(now) < freeze {
					stats.Frozen++
					continue
				}
				existing.SeatsLeft = s.Unsold
				existing.UpdatedAt = now
				stats.Updated++
				continue
			}

			startAt, err := time.ParseInLocation("2006-01-02 15:04", date+" "+s.StartTime, loc)
			if err != nil {
				stats.Skipped++
				continue
			}
			v.Shows[id] = &venue.Show{
				ID:            id,
				FilmID:        film.ID.String(),
				FilmName:      film.Name,
				FilmCategory:  film.Category,
				FilmDuration:  film.Duration.String(),
				Hall:          s.Hall,
				Language:      s.Language,
				Dimension:     s.Dimension,
				Price:         s.Price.String(),
				OriginalPrice: s.CardPrice.String(),
				RebatePrice:   s.RebatePrice.String(),
				ServiceCharge: s.ServiceCharge.String(),
				StartAt:       startAt,
				Capacity:      s.Capacity,
				SeatsLeft:     s.Unsold,
				UpdatedAt:     now,
			}
			stats.Added++
		}
	}
	return stats
}
