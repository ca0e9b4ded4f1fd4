package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/booking"
	"github.com/iliyamo/spacehire/internal/middleware"
	"github.com/iliyamo/spacehire/internal/model"
)

// BookingHandler exposes the booking engine under /v1/bookings.
type BookingHandler struct {
	Bookings *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{Bookings: svc}
}

// Create handles POST /v1/bookings.  Authenticated callers book as their
// account; anonymous callers book with contact details only.  Validation is
// left to the booking service so both paths apply identical rules.
func (h *BookingHandler) Create(c echo.Context) error {
	var req booking.AdmitRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	req.AccountID = middleware.AccountID(c)

	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Bookings.Admit(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "booking": res})
}

// List handles GET /v1/bookings?status=&role=&spaceId=.
func (h *BookingHandler) List(c echo.Context) error {
	spaceID, err := queryUint(c, "spaceId")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Bookings.List(ctx, actor(c), booking.ListQuery{
		Status:  model.ReservationStatus(strings.ToLower(c.QueryParam("status"))),
		Role:    c.QueryParam("role"),
		SpaceID: spaceID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(list), "bookings": list})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Bookings.Get(ctx, id, actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": res})
}

type statusReq struct {
	Status             model.ReservationStatus `json:"status" validate:"required"`
	CancellationReason string                  `json:"cancellationReason" validate:"max=500"`
}

// UpdateStatus handles PATCH /v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req statusReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Bookings.UpdateStatus(ctx, id, actor(c), req.Status, strings.TrimSpace(req.CancellationReason))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": res})
}
