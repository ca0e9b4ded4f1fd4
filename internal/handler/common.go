package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/booking"
	"github.com/iliyamo/spacehire/internal/middleware"
)

// requestTimeout bounds every handler's storage work.
const requestTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bindAndValidate decodes the body into req and runs the shared validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("invalid request body")
	}
	return c.Validate(req)
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// queryUint parses an optional numeric query parameter; absent yields 0.
func queryUint(c echo.Context, name string) (uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return v, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.Validation("%s must be a non-negative integer", name)
	}
	return v, nil
}

// actor is the authenticated caller as the booking engine sees it.
func actor(c echo.Context) booking.Actor {
	return booking.Actor{AccountID: middleware.AccountID(c), Role: middleware.Role(c)}
}

// pagination is embedded in list responses.
type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func newPagination(page, limit, total int) pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}
	if limit > 100 {
		limit = 100
	}
	return pagination{Page: page, Limit: limit, Total: total, Pages: (total + limit - 1) / limit}
}
