package messaging

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/repository"
)

const (
	hostID     = 10
	guestID    = 20
	strangerID = 30
)

type fakeReservations map[uint64]model.Reservation

func (f fakeReservations) ForReview(_ context.Context, id uint64) (*model.Reservation, uint64, error) {
	r, ok := f[id]
	if !ok {
		return nil, 0, sql.ErrNoRows
	}
	return &r, hostID, nil
}

type fakeAccounts map[uint64]bool

func (f fakeAccounts) GetByID(_ context.Context, id uint64) (*model.Account, error) {
	if !f[id] {
		return nil, sql.ErrNoRows
	}
	return &model.Account{ID: id}, nil
}

type memMessages struct {
	list []model.Message
	last repository.MessageFilter
}

func (m *memMessages) Create(_ context.Context, msg *model.Message) (*model.Message, error) {
	msg.ID = uint64(len(m.list) + 1)
	m.list = append(m.list, *msg)
	return msg, nil
}

func (m *memMessages) List(_ context.Context, f repository.MessageFilter) ([]model.Message, error) {
	m.last = f
	return m.list, nil
}

func (m *memMessages) MarkRead(_ context.Context, id, accountID uint64) (*model.Message, error) {
	if id == 0 || int(id) > len(m.list) {
		return nil, sql.ErrNoRows
	}
	msg := &m.list[id-1]
	if msg.RecipientID != accountID {
		return nil, repository.ErrForbidden
	}
	msg.IsRead = true
	return msg, nil
}

func newFixture() (*Service, *memMessages) {
	res := fakeReservations{
		1: {ID: 1, Requester: model.RegisteredRequester(guestID, "Guest", "+256700000001", "")},
	}
	accounts := fakeAccounts{hostID: true, guestID: true, strangerID: true}
	msgs := &memMessages{}
	return NewService(res, accounts, msgs), msgs
}

func TestSend(t *testing.T) {
	svc, msgs := newFixture()
	m, err := svc.Send(context.Background(), guestID, SendRequest{RecipientID: hostID, BookingID: 1, Content: " hello "})
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Content)
	require.NotNil(t, m.ReservationID)
	assert.Equal(t, uint64(1), *m.ReservationID)
	assert.Len(t, msgs.list, 1)
}

func TestSendRejections(t *testing.T) {
	cases := []struct {
		name   string
		sender uint64
		req    SendRequest
		target any
	}{
		{"empty content", guestID, SendRequest{RecipientID: hostID, Content: "   "}, &apperr.ValidationError{}},
		{"to self", guestID, SendRequest{RecipientID: guestID, Content: "hi"}, &apperr.ValidationError{}},
		{"unknown recipient", guestID, SendRequest{RecipientID: 999, Content: "hi"}, &apperr.NotFoundError{}},
		{"unknown booking", guestID, SendRequest{RecipientID: hostID, BookingID: 7, Content: "hi"}, &apperr.NotFoundError{}},
		{"stranger on booking", strangerID, SendRequest{RecipientID: hostID, BookingID: 1, Content: "hi"}, &apperr.AuthorizationError{}},
		{"recipient not a party", hostID, SendRequest{RecipientID: strangerID, BookingID: 1, Content: "hi"}, &apperr.ValidationError{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newFixture()
			_, err := svc.Send(context.Background(), tc.sender, tc.req)
			require.Error(t, err)
			switch tc.target.(type) {
			case *apperr.ValidationError:
				var e *apperr.ValidationError
				assert.ErrorAs(t, err, &e)
			case *apperr.NotFoundError:
				var e *apperr.NotFoundError
				assert.ErrorAs(t, err, &e)
			case *apperr.AuthorizationError:
				var e *apperr.AuthorizationError
				assert.ErrorAs(t, err, &e)
			}
		})
	}
}

func TestListBookingThread(t *testing.T) {
	svc, msgs := newFixture()
	_, err := svc.List(context.Background(), hostID, ListQuery{BookingID: 1})
	require.NoError(t, err)
	assert.Equal(t, repository.MessageFilter{AccountID: hostID, ReservationID: 1}, msgs.last)

	_, err = svc.List(context.Background(), strangerID, ListQuery{BookingID: 1})
	var ae *apperr.AuthorizationError
	assert.ErrorAs(t, err, &ae)
}

func TestMarkRead(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()
	_, err := svc.Send(ctx, guestID, SendRequest{RecipientID: hostID, Content: "hi"})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, 1, guestID)
	var ae *apperr.AuthorizationError
	assert.ErrorAs(t, err, &ae)

	m, err := svc.MarkRead(ctx, 1, hostID)
	require.NoError(t, err)
	assert.True(t, m.IsRead)

	_, err = svc.MarkRead(ctx, 42, hostID)
	var ne *apperr.NotFoundError
	assert.ErrorAs(t, err, &ne)
}
