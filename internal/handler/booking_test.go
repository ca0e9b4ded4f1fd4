package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spacehire/internal/booking"
	"github.com/iliyamo/spacehire/internal/booking/bookingtest"
	"github.com/iliyamo/spacehire/internal/middleware"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/utils"
	"github.com/iliyamo/spacehire/internal/validate"
)

const (
	testSecret        = "handler-test-secret"
	hostID     uint64 = 10
	guestID    uint64 = 20
	otherID    uint64 = 30
	adminID    uint64 = 40
)

type bookingAPI struct {
	e     *echo.Echo
	store *bookingtest.MemStore
}

func newBookingAPI(t *testing.T) *bookingAPI {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := bookingtest.NewMemStore()
	store.AddListing(model.Listing{
		ID: 1, HostID: hostID, Name: "Rooftop", City: "Kampala",
		PricePerHour: 50000, Capacity: 20, IsActive: true,
	})
	store.AddListing(model.Listing{ID: 2, HostID: hostID, PricePerHour: 1000, Capacity: 5})
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := booking.NewService(store, booking.WithClock(func() time.Time { return now }))
	h := NewBookingHandler(svc)

	e := echo.New()
	e.Validator = validate.EchoValidator{}
	e.HTTPErrorHandler = ErrorHandler(log, false)
	g := e.Group("/v1/bookings")
	g.POST("", h.Create, middleware.OptionalJWT(testSecret))
	authed := g.Group("", middleware.JWTAuth(testSecret))
	authed.GET("", h.List)
	authed.GET("/:id", h.Get)
	authed.PATCH("/:id/status", h.UpdateStatus)
	return &bookingAPI{e: e, store: store}
}

func (a *bookingAPI) do(t *testing.T, method, path, body string, as uint64, role model.Role) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as != 0 {
		tok, err := utils.NewAccessToken(testSecret, as, role, 5)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func bookingBody(space uint64, start, end string) string {
	return fmt.Sprintf(`{"spaceId":%d,"startDate":"2024-06-10","endDate":"2024-06-10","startTime":%q,"endTime":%q,
		"guests":4,"guestName":"Jane Guest","guestPhone":"+256 700 000 000"}`, space, start, end)
}

type envelope struct {
	Success  bool                `json:"success"`
	Error    string              `json:"error"`
	Message  string              `json:"message"`
	Booking  model.Reservation   `json:"booking"`
	Bookings []model.Reservation `json:"bookings"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestCreateBookingAnonymous(t *testing.T) {
	api := newBookingAPI(t)
	rec := api.do(t, http.MethodPost, "/v1/bookings", bookingBody(1, "10:00", "12:00"), 0, "")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, model.RequesterAnonymous, env.Booking.Requester.Kind)
	assert.Equal(t, "+256700000000", env.Booking.Requester.Phone)
	assert.Equal(t, model.Money(100000), env.Booking.Subtotal)
	assert.Equal(t, model.Money(10000), env.Booking.ServiceFee)
	assert.Equal(t, model.Money(110000), env.Booking.TotalPrice)
	assert.Equal(t, model.StatusPending, env.Booking.Status)
	require.NotNil(t, env.Booking.Space)
	assert.Equal(t, "Rooftop", env.Booking.Space.Name)
}

func TestCreateBookingAuthenticatedAttachesAccount(t *testing.T) {
	api := newBookingAPI(t)
	rec := api.do(t, http.MethodPost, "/v1/bookings", bookingBody(1, "10:00", "12:00"), guestID, model.RoleGuest)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.Equal(t, model.RequesterRegistered, env.Booking.Requester.Kind)
	assert.Equal(t, guestID, env.Booking.Requester.AccountID)
}

func TestCreateBookingErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"spaceId":`, 400, "validation_error"},
		{"bad phone", strings.Replace(bookingBody(1, "10:00", "12:00"), "+256 700 000 000", "0700", 1), 400, "validation_error"},
		{"inverted times", bookingBody(1, "12:00", "10:00"), 400, "validation_error"},
		{"unknown space", bookingBody(99, "10:00", "12:00"), 404, "not_found"},
		{"inactive space", bookingBody(2, "10:00", "12:00"), 404, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newBookingAPI(t)
			rec := api.do(t, http.MethodPost, "/v1/bookings", tc.body, 0, "")
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tc.code, env.Error)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestCreateBookingConflict(t *testing.T) {
	api := newBookingAPI(t)
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/v1/bookings", bookingBody(1, "10:00", "12:00"), 0, "").Code)

	rec := api.do(t, http.MethodPost, "/v1/bookings", bookingBody(1, "11:00", "13:00"), 0, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "conflict", env.Error)
	assert.Equal(t, "space already booked for this time", env.Message)
}

func TestCreateBookingRejectsInvalidToken(t *testing.T) {
	api := newBookingAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(bookingBody(1, "10:00", "12:00")))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer expired.or.forged")
	rec := httptest.NewRecorder()
	api.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, api.store.Reservations())
}

func TestGetBookingAuthorization(t *testing.T) {
	api := newBookingAPI(t)
	rec := api.do(t, http.MethodPost, "/v1/bookings", bookingBody(1, "10:00", "12:00"), guestID, model.RoleGuest)
	require.Equal(t, http.StatusCreated, rec.Code)
	path := fmt.Sprintf("/v1/bookings/%d", decode(t, rec).Booking.ID)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, path, "", guestID, model.RoleGuest).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, path, "", hostID, model.RoleHost).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, path, "", adminID, model.RoleAdmin).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, path, "", otherID, model.RoleGuest).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, path, "", 0, "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/v1/bookings/999", "", adminID, model.RoleAdmin).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/v1/bookings/abc", "", adminID, model.RoleAdmin).Code)
}

func TestUpdateStatusFlow(t *testing.T) {
	api := newBookingAPI(t)
	rec := api.do(t, http.MethodPost, "/v1/bookings", bookingBody(1, "10:00", "12:00"), guestID, model.RoleGuest)
	require.Equal(t, http.StatusCreated, rec.Code)
	path := fmt.Sprintf("/v1/bookings/%d/status", decode(t, rec).Booking.ID)

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPatch, path, `{"status":"confirmed"}`, guestID, model.RoleGuest).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPatch, path, `{}`, hostID, model.RoleHost).Code)

	rec = api.do(t, http.MethodPatch, path, `{"status":"confirmed"}`, hostID, model.RoleHost)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusConfirmed, decode(t, rec).Booking.Status)

	rec = api.do(t, http.MethodPatch, path, `{"status":"cancelled","cancellationReason":"storm"}`, adminID, model.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode(t, rec).Booking
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Equal(t, "storm", got.CancellationReason)

	rec = api.do(t, http.MethodPatch, path, `{"status":"confirmed"}`, hostID, model.RoleHost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBookingsScopes(t *testing.T) {
	api := newBookingAPI(t)
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/v1/bookings", bookingBody(1, "08:00", "09:00"), guestID, model.RoleGuest).Code)
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/v1/bookings", bookingBody(1, "14:00", "15:00"), otherID, model.RoleGuest).Code)

	mine := decode(t, api.do(t, http.MethodGet, "/v1/bookings", "", guestID, model.RoleGuest))
	require.Len(t, mine.Bookings, 1)
	assert.Equal(t, guestID, mine.Bookings[0].Requester.AccountID)

	hosted := decode(t, api.do(t, http.MethodGet, "/v1/bookings?role=host", "", hostID, model.RoleHost))
	assert.Len(t, hosted.Bookings, 2)

	all := decode(t, api.do(t, http.MethodGet, "/v1/bookings?spaceId=1", "", adminID, model.RoleAdmin))
	assert.Len(t, all.Bookings, 2)

	rec := api.do(t, http.MethodGet, "/v1/bookings?status=bogus", "", guestID, model.RoleGuest)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodGet, "/v1/bookings?spaceId=x", "", adminID, model.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
