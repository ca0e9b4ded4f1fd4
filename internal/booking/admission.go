package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/queue"
	"github.com/iliyamo/spacehire/internal/validate"
)

// AdmitRequest is the body of POST /bookings. AccountID is never bound from
// JSON; handlers copy it from the authenticated session.
type AdmitRequest struct {
	SpaceID         uint64              `json:"spaceId" validate:"required"`
	StartDate       string              `json:"startDate" validate:"required"`
	EndDate         string              `json:"endDate" validate:"required"`
	StartTime       string              `json:"startTime"`
	EndTime         string              `json:"endTime"`
	Guests          int                 `json:"guests" validate:"required,gte=1"`
	SpecialRequests string              `json:"specialRequests" validate:"max=1000"`
	GuestName       string              `json:"guestName" validate:"required,max=100"`
	GuestPhone      string              `json:"guestPhone" validate:"required,phone"`
	GuestEmail      string              `json:"guestEmail" validate:"omitempty,email"`
	PaymentMethod   model.PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=cash mobile_money card"`

	AccountID uint64 `json:"-"`
}

// normalize trims the free-text fields so that blank values fail the
// required rules instead of being stored empty.
func (r *AdmitRequest) normalize() {
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.EndDate = strings.TrimSpace(r.EndDate)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
	r.SpecialRequests = strings.TrimSpace(r.SpecialRequests)
	r.GuestName = strings.TrimSpace(r.GuestName)
	r.GuestPhone = validate.NormalizePhone(r.GuestPhone)
	r.GuestEmail = strings.ToLower(strings.TrimSpace(r.GuestEmail))
}

func (r *AdmitRequest) requester() model.Requester {
	if r.AccountID != 0 {
		return model.RegisteredRequester(r.AccountID, r.GuestName, r.GuestPhone, r.GuestEmail)
	}
	return model.AnonymousRequester(r.GuestName, r.GuestPhone, r.GuestEmail)
}

// Admit validates req, checks it against the existing reservations of the
// space and persists it. The conflict check and the insert run in one
// transaction holding the space lock, so two overlapping requests for the
// same space can never both be admitted.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*model.Reservation, error) {
	req.normalize()
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	now := s.now()
	var admitted *model.Reservation
	err := s.store.InSpaceTx(ctx, req.SpaceID, func(tx Tx, listing *model.Listing) error {
		if listing == nil || !listing.IsActive {
			return apperr.NotFound("space not found")
		}
		w, err := ResolveWindow(WindowRequest{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		}, now, s.loc)
		if err != nil {
			return err
		}
		if listing.Capacity > 0 && req.Guests > listing.Capacity {
			return apperr.Validation("guests exceeds space capacity of %d", listing.Capacity)
		}
		clash, err := FindConflict(ctx, tx, listing.ID, w)
		if err != nil {
			return err
		}
		if clash != nil {
			return &apperr.ConflictError{Reason: "space already booked for this time", ConflictingID: clash.ID}
		}
		price, err := Quote(listing.PricePerHour, w.BillableHours)
		if err != nil {
			return err
		}

		status := model.StatusPending
		if listing.InstantBooking {
			status = model.StatusConfirmed
		}
		method := req.PaymentMethod
		if method == "" {
			method = model.PaymentCash
		}
		r := &model.Reservation{
			Reference:       uuid.NewString(),
			SpaceID:         listing.ID,
			Requester:       req.requester(),
			StartAt:         w.Start.UTC(),
			EndAt:           w.End.UTC(),
			StartTime:       w.StartTime,
			EndTime:         w.EndTime,
			Guests:          req.Guests,
			Subtotal:        price.Subtotal,
			ServiceFee:      price.ServiceFee,
			TotalPrice:      price.Total,
			Status:          status,
			PaymentStatus:   model.PaymentPending,
			PaymentMethod:   method,
			SpecialRequests: req.SpecialRequests,
			CreatedAt:       now.UTC(),
			UpdatedAt:       now.UTC(),
			Space:           listing.Summary(),
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return err
		}
		admitted = r
		return nil
	})
	if err != nil {
		var conflict *apperr.ConflictError
		if errors.As(err, &conflict) {
			s.log.WithFields(logrus.Fields{
				"space_id":       req.SpaceID,
				"conflicting_id": conflict.ConflictingID,
			}).Info("booking rejected: overlapping reservation")
		}
		return nil, err
	}
	if full, _, err := s.store.GetReservation(ctx, admitted.ID); err != nil {
		s.log.WithError(err).WithField("reservation_id", admitted.ID).Warn("reload admitted booking")
	} else if full != nil {
		admitted = full
	}
	s.log.WithFields(logrus.Fields{
		"reservation_id": admitted.ID,
		"space_id":       admitted.SpaceID,
		"status":         admitted.Status,
		"total":          admitted.TotalPrice,
	}).Info("booking admitted")
	s.publish(ctx, queue.EventReservationAdmitted, admitted, "", req.AccountID)
	return admitted, nil
}
