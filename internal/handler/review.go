package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spacehire/internal/middleware"
	"github.com/iliyamo/spacehire/internal/review"
)

type ReviewHandler struct {
	Reviews *review.Service
	Cache   *middleware.ResponseCache
}

func NewReviewHandler(svc *review.Service, cache *middleware.ResponseCache) *ReviewHandler {
	return &ReviewHandler{Reviews: svc, Cache: cache}
}

// Create handles POST /v1/reviews.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req review.CreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rv, err := h.Reviews.Create(ctx, middleware.AccountID(c), req)
	if err != nil {
		return err
	}
	// listing ratings are part of the cached browse responses
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "review": rv})
}

// ListBySpace handles GET /v1/spaces/:id/reviews.
func (h *ReviewHandler) ListBySpace(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Reviews.ListBySpace(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(list), "reviews": list})
}
