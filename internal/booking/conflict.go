package booking

import (
	"context"
	"time"

	"github.com/iliyamo/spacehire/internal/model"
)

// OccupyingStatuses are the statuses that block overlapping reservations.
var OccupyingStatuses = []model.ReservationStatus{model.StatusPending, model.StatusConfirmed}

// IsOccupying reports whether a reservation in status s owns its interval.
func IsOccupying(s model.ReservationStatus) bool {
	for _, o := range OccupyingStatuses {
		if s == o {
			return true
		}
	}
	return false
}

// Overlaps is the closed overlap test between a stored interval [s, e] and a
// candidate [start, end]. Intervals that only touch at one instant overlap.
func Overlaps(s, e, start, end time.Time) bool {
	return !s.After(end) && !e.Before(start)
}

// FindConflict returns the first occupying reservation of spaceID that
// overlaps w, or nil. It must run inside the transaction that will insert
// the candidate so the answer cannot go stale before commit.
func FindConflict(ctx context.Context, tx Tx, spaceID uint64, w Window) (*model.Reservation, error) {
	return tx.FindOverlapping(ctx, spaceID, w.Start, w.End, OccupyingStatuses)
}
