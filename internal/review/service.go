// Package review lets guests rate completed reservations and keeps each
// listing's aggregate rating current.
package review

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/repository"
	"github.com/iliyamo/spacehire/internal/validate"
)

// ReservationLookup returns a reservation with its listing's host id, or
// sql.ErrNoRows.
type ReservationLookup interface {
	ForReview(ctx context.Context, id uint64) (*model.Reservation, uint64, error)
}

// Store persists reviews.  Create returns repository.ErrConflict for a
// second review of the same reservation.
type Store interface {
	Create(ctx context.Context, rv *model.Review) error
	ListBySpace(ctx context.Context, spaceID uint64) ([]model.Review, error)
}

// RatingRecomputer rebuilds a listing's aggregate from all its reviews.
type RatingRecomputer interface {
	RecomputeRating(ctx context.Context, spaceID uint64) (model.Rating, error)
}

type Service struct {
	reservations ReservationLookup
	reviews      Store
	ratings      RatingRecomputer
	log          logrus.FieldLogger
}

func NewService(reservations ReservationLookup, reviews Store, ratings RatingRecomputer, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Service{reservations: reservations, reviews: reviews, ratings: ratings, log: log}
}

// CreateRequest is the body of POST /v1/reviews.
type CreateRequest struct {
	BookingID  uint64                 `json:"bookingId" validate:"required"`
	Rating     int                    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment    string                 `json:"comment" validate:"max=1000"`
	Categories model.ReviewCategories `json:"categories"`
}

// Create records guestID's review of a completed reservation and refreshes
// the listing rating.  A failed recompute is logged, not returned: the
// review itself is already stored and the next review recomputes again.
func (s *Service) Create(ctx context.Context, guestID uint64, req CreateRequest) (*model.Review, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	res, hostID, err := s.reservations.ForReview(ctx, req.BookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking not found")
	}
	if err != nil {
		return nil, err
	}
	if !res.Requester.IsAccount(guestID) {
		return nil, apperr.Forbidden("only the guest of this booking can review it")
	}
	if res.Status != model.StatusCompleted {
		return nil, apperr.Validation("only completed bookings can be reviewed")
	}

	rv := &model.Review{
		ReservationID: res.ID,
		SpaceID:       res.SpaceID,
		GuestID:       guestID,
		HostID:        hostID,
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
		Categories:    req.Categories,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("booking has already been reviewed")
		}
		return nil, err
	}

	rating, err := s.ratings.RecomputeRating(ctx, rv.SpaceID)
	if err != nil {
		s.log.WithError(err).WithField("space_id", rv.SpaceID).Error("rating recompute failed")
	} else {
		s.log.WithFields(logrus.Fields{
			"space_id": rv.SpaceID,
			"average":  rating.Average,
			"count":    rating.Count,
		}).Info("listing rating updated")
	}
	return rv, nil
}

// ListBySpace returns the reviews of a listing, newest first.
func (s *Service) ListBySpace(ctx context.Context, spaceID uint64) ([]model.Review, error) {
	return s.reviews.ListBySpace(ctx, spaceID)
}
