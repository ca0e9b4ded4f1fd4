package booking

import (
	"context"
	"time"

	"github.com/iliyamo/spacehire/internal/model"
)

// Store is the persistence boundary of the booking engine. Absent records
// are reported as nil pointers with a nil error so that the engine decides
// which domain error to raise.
type Store interface {
	// InSpaceTx runs fn inside a transaction that holds an exclusive lock on
	// the listing identified by spaceID. Concurrent calls for the same space
	// are serialised; calls for different spaces are not. The transaction
	// commits only when fn returns nil. listing is nil if it does not exist.
	InSpaceTx(ctx context.Context, spaceID uint64, fn func(tx Tx, listing *model.Listing) error) error

	// InReservationTx runs fn inside a transaction that holds an exclusive
	// lock on the reservation row. r is nil if it does not exist.
	InReservationTx(ctx context.Context, id uint64, fn func(tx Tx, r *model.Reservation, listing *model.Listing) error) error

	// GetReservation loads a reservation and its listing without locking.
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, *model.Listing, error)

	// ListReservations returns reservations matching f, newest first.
	ListReservations(ctx context.Context, f ListFilter) ([]model.Reservation, error)

	// ListCompletable returns ids of confirmed reservations ending before t.
	ListCompletable(ctx context.Context, before time.Time) ([]uint64, error)
}

// Tx is the set of writes and locked reads available inside a Store
// transaction.
type Tx interface {
	// FindOverlapping returns one reservation of spaceID whose status is in
	// statuses and whose [start_at, end_at] satisfies the closed overlap test
	// against [start, end], or nil.
	FindOverlapping(ctx context.Context, spaceID uint64, start, end time.Time, statuses []model.ReservationStatus) (*model.Reservation, error)
	// InsertReservation persists r and fills its ID and timestamps.
	InsertReservation(ctx context.Context, r *model.Reservation) error
	// UpdateReservationStatus persists the status and cancellation fields of r.
	UpdateReservationStatus(ctx context.Context, r *model.Reservation) error
}

// ListFilter narrows ListReservations. Zero values mean "any".
type ListFilter struct {
	AccountID uint64 // reservations requested by this account
	HostID    uint64 // reservations on listings owned by this account
	SpaceID   uint64
	Status    model.ReservationStatus
}
