package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/messaging"
	"github.com/iliyamo/spacehire/internal/middleware"
)

type MessageHandler struct {
	Messages *messaging.Service
}

func NewMessageHandler(svc *messaging.Service) *MessageHandler {
	return &MessageHandler{Messages: svc}
}

// Send handles POST /v1/messages.
func (h *MessageHandler) Send(c echo.Context) error {
	var req messaging.SendRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	m, err := h.Messages.Send(ctx, middleware.AccountID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": m})
}

// List handles GET /v1/messages?bookingId=&userId=.
func (h *MessageHandler) List(c echo.Context) error {
	bookingID, err := queryUint(c, "bookingId")
	if err != nil {
		return err
	}
	peerID, err := queryUint(c, "userId")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Messages.List(ctx, middleware.AccountID(c), messaging.ListQuery{BookingID: bookingID, PeerID: peerID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(list), "messages": list})
}

// MarkRead handles PATCH /v1/messages/:id/read.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	m, err := h.Messages.MarkRead(ctx, id, middleware.AccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": m})
}
