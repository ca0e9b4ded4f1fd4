// Package messaging implements direct messages between accounts, optionally
// attached to a reservation.
package messaging

import (
	"context"
	"database/sql"
	"errors"
	"strings"

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

// AccountLookup resolves a recipient.
type AccountLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.Account, error)
}

// Store persists messages.  MarkRead returns repository.ErrForbidden when
// the caller is not the recipient.
type Store interface {
	Create(ctx context.Context, m *model.Message) (*model.Message, error)
	List(ctx context.Context, f repository.MessageFilter) ([]model.Message, error)
	MarkRead(ctx context.Context, id, accountID uint64) (*model.Message, error)
}

type Service struct {
	reservations ReservationLookup
	accounts     AccountLookup
	messages     Store
}

func NewService(reservations ReservationLookup, accounts AccountLookup, messages Store) *Service {
	return &Service{reservations: reservations, accounts: accounts, messages: messages}
}

// SendRequest is the body of POST /v1/messages.
type SendRequest struct {
	RecipientID uint64 `json:"recipientId" validate:"required"`
	BookingID   uint64 `json:"bookingId"`
	Content     string `json:"content" validate:"required,max=2000"`
}

// Send stores a message from senderID.  When a booking is referenced the
// sender and the recipient must both be parties to it: its registered guest
// or the listing host.
func (s *Service) Send(ctx context.Context, senderID uint64, req SendRequest) (*model.Message, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.RecipientID == senderID {
		return nil, apperr.Validation("cannot send a message to yourself")
	}
	if _, err := s.accounts.GetByID(ctx, req.RecipientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("recipient not found")
		}
		return nil, err
	}

	m := &model.Message{SenderID: senderID, RecipientID: req.RecipientID, Content: req.Content}
	if req.BookingID != 0 {
		if err := s.authorizeBooking(ctx, req.BookingID, senderID, req.RecipientID); err != nil {
			return nil, err
		}
		id := req.BookingID
		m.ReservationID = &id
	}
	return s.messages.Create(ctx, m)
}

func (s *Service) authorizeBooking(ctx context.Context, bookingID, senderID, recipientID uint64) error {
	res, hostID, err := s.reservations.ForReview(ctx, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("booking not found")
	}
	if err != nil {
		return err
	}
	party := func(id uint64) bool { return id == hostID || res.Requester.IsAccount(id) }
	if !party(senderID) {
		return apperr.Forbidden("not authorized to message about this booking")
	}
	if !party(recipientID) {
		return apperr.Validation("recipient is not a party to this booking")
	}
	return nil
}

// ListQuery selects a conversation for GET /v1/messages.
type ListQuery struct {
	BookingID uint64
	PeerID    uint64
}

// List returns a conversation of accountID.  Listing a booking's thread
// requires being a party to that booking.
func (s *Service) List(ctx context.Context, accountID uint64, q ListQuery) ([]model.Message, error) {
	if q.BookingID != 0 {
		res, hostID, err := s.reservations.ForReview(ctx, q.BookingID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("booking not found")
		}
		if err != nil {
			return nil, err
		}
		if accountID != hostID && !res.Requester.IsAccount(accountID) {
			return nil, apperr.Forbidden("not authorized to view these messages")
		}
	}
	return s.messages.List(ctx, repository.MessageFilter{
		AccountID:     accountID,
		ReservationID: q.BookingID,
		PeerID:        q.PeerID,
	})
}

// MarkRead marks message id as read on behalf of its recipient.
func (s *Service) MarkRead(ctx context.Context, id, accountID uint64) (*model.Message, error) {
	m, err := s.messages.MarkRead(ctx, id, accountID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, apperr.NotFound("message not found")
	case errors.Is(err, repository.ErrForbidden):
		return nil, apperr.Forbidden("only the recipient can mark a message as read")
	}
	return m, err
}
