// Package booking is the reservation engine: admission (validate, check
// conflicts, price, commit), the status lifecycle and the read paths that
// enforce who may see a reservation.
package booking

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/queue"
)

// Actor is the caller of an operation. AccountID is zero for anonymous
// callers.
type Actor struct {
	AccountID uint64
	Role      model.Role
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// Publisher receives reservation events after commit.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Service implements the booking operations on top of a Store.
type Service struct {
	store  Store
	events Publisher
	log    logrus.FieldLogger
	now    func() time.Time
	loc    *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLocation sets the zone in which dates and times of day are resolved.
func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }

// NewService builds a Service. A store is required.
func NewService(store Store, opts ...Option) *Service {
	if store == nil {
		panic("nil store passed to booking.NewService")
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	s := &Service{store: store, log: quiet, now: time.Now, loc: time.UTC}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns a reservation visible to actor: its registered requester, the
// listing's host or an admin.
func (s *Service) Get(ctx context.Context, id uint64, actor Actor) (*model.Reservation, error) {
	r, listing, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("booking not found")
	}
	isHost := listing != nil && actor.AccountID != 0 && listing.HostID == actor.AccountID
	if !r.Requester.IsAccount(actor.AccountID) && !isHost && !actor.IsAdmin() {
		return nil, apperr.Forbidden("not authorized to view this booking")
	}
	return r, nil
}

// ListQuery is the caller-facing filter of List.
type ListQuery struct {
	Status  model.ReservationStatus
	Role    string // "host" lists reservations on the actor's listings
	SpaceID uint64
}

// List returns the reservations the actor may see: as host of the listings
// when Role is "host", every reservation for admins, otherwise the actor's
// own reservations.
func (s *Service) List(ctx context.Context, actor Actor, q ListQuery) ([]model.Reservation, error) {
	if actor.AccountID == 0 {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperr.Validation("invalid status filter %q", q.Status)
	}
	f := ListFilter{Status: q.Status}
	switch {
	case q.Role == "host":
		f.HostID = actor.AccountID
		f.SpaceID = q.SpaceID
	case actor.IsAdmin():
		f.SpaceID = q.SpaceID
	default:
		f.AccountID = actor.AccountID
	}
	return s.store.ListReservations(ctx, f)
}

// UpdateStatus moves a reservation through the lifecycle on behalf of the
// listing's host or an admin.
func (s *Service) UpdateStatus(ctx context.Context, id uint64, actor Actor, next model.ReservationStatus, reason string) (*model.Reservation, error) {
	var (
		updated  *model.Reservation
		previous model.ReservationStatus
	)
	err := s.store.InReservationTx(ctx, id, func(tx Tx, r *model.Reservation, listing *model.Listing) error {
		if r == nil {
			return apperr.NotFound("booking not found")
		}
		isHost := listing != nil && actor.AccountID != 0 && listing.HostID == actor.AccountID
		if !isHost && !actor.IsAdmin() {
			return apperr.Forbidden("not authorized to update this booking")
		}
		if !HostSettable(next) {
			return apperr.Validation("invalid status %q, expected one of confirmed, declined, cancelled", next)
		}
		if IsTerminal(r.Status) {
			return apperr.Validation("booking is already %s and can no longer change", r.Status)
		}
		if !CanTransition(r.Status, next) {
			return apperr.Validation("cannot change booking from %s to %s", r.Status, next)
		}
		previous = r.Status
		s.apply(r, next, reason)
		if err := tx.UpdateReservationStatus(ctx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"reservation_id": updated.ID,
		"from":           previous,
		"to":             updated.Status,
		"actor_id":       actor.AccountID,
	}).Info("booking status updated")
	s.publish(ctx, queue.EventReservationStatusChanged, updated, previous, actor.AccountID)
	return updated, nil
}

// Complete marks every confirmed reservation that ended before now as
// completed. It returns the number of reservations moved.
func (s *Service) Complete(ctx context.Context) (int, error) {
	now := s.now()
	ids, err := s.store.ListCompletable(ctx, now)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, id := range ids {
		var moved *model.Reservation
		err := s.store.InReservationTx(ctx, id, func(tx Tx, r *model.Reservation, _ *model.Listing) error {
			// Re-checked under the row lock: a host may have cancelled it meanwhile.
			if r == nil || !CanTransition(r.Status, model.StatusCompleted) || !r.EndAt.Before(now) {
				return nil
			}
			s.apply(r, model.StatusCompleted, "")
			if err := tx.UpdateReservationStatus(ctx, r); err != nil {
				return err
			}
			moved = r
			return nil
		})
		if err != nil {
			return done, err
		}
		if moved != nil {
			done++
			s.publish(ctx, queue.EventReservationStatusChanged, moved, model.StatusConfirmed, 0)
		}
	}
	return done, nil
}

func (s *Service) apply(r *model.Reservation, next model.ReservationStatus, reason string) {
	now := s.now().UTC()
	r.Status = next
	r.UpdatedAt = now
	if next == model.StatusCancelled {
		r.CancelledAt = &now
		if reason != "" {
			r.CancellationReason = reason
		}
	}
}

// publish is best effort: the reservation is already committed, so broker
// failures are logged and never surfaced to the caller.
func (s *Service) publish(ctx context.Context, kind string, r *model.Reservation, previous model.ReservationStatus, actorID uint64) {
	if s.events == nil || r == nil {
		return
	}
	ev := queue.ReservationEvent{
		Type:           kind,
		ReservationID:  r.ID,
		Reference:      r.Reference,
		SpaceID:        r.SpaceID,
		AccountID:      r.Requester.AccountID,
		ActorID:        actorID,
		Status:         string(r.Status),
		PreviousStatus: string(previous),
		StartsAt:       r.StartAt.UTC().Format(time.RFC3339),
		EndsAt:         r.EndAt.UTC().Format(time.RFC3339),
		TotalPrice:     int64(r.TotalPrice),
		Reason:         r.CancellationReason,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithField("reservation_id", r.ID).Warn("publish reservation event failed")
	}
}
