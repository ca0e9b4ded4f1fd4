package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/middleware"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/repository"
	"github.com/iliyamo/spacehire/internal/validate"
)

// UserHandler serves public profiles and the caller's own profile.
type UserHandler struct {
	Accounts *repository.AccountRepo
	Listings *repository.ListingRepo
}

func NewUserHandler(a *repository.AccountRepo, l *repository.ListingRepo) *UserHandler {
	return &UserHandler{Accounts: a, Listings: l}
}

// publicProfile omits contact details.
type publicProfile struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	Avatar    string     `json:"avatar,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Profile handles GET /v1/users/:id.
func (h *UserHandler) Profile(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	a, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "user not found")
	}
	if !a.IsActive {
		return apperr.NotFound("user not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": publicProfile{
		ID: a.ID, Name: a.Name, Role: a.Role, Avatar: a.Avatar, CreatedAt: a.CreatedAt,
	}})
}

// Spaces handles GET /v1/users/:id/spaces: the host's active listings.
func (h *UserHandler) Spaces(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	q, err := parseListingQuery(c)
	if err != nil {
		return err
	}
	q.HostID = id
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, total, err := h.Listings.Search(ctx, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"spaces":     list,
		"pagination": newPagination(q.Page, q.Limit, total),
	})
}

// Stats handles GET /v1/me/stats.
func (h *UserHandler) Stats(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	s, err := h.Accounts.Stats(ctx, middleware.AccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stats": s})
}

type updateProfileReq struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone  *string `json:"phone" validate:"omitempty,phone"`
	Avatar *string `json:"avatar" validate:"omitempty,url,max=500"`
}

// UpdateMe handles PATCH /v1/me.  Email and role cannot be changed here.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req updateProfileReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Phone != nil {
		p := validate.NormalizePhone(*req.Phone)
		req.Phone = &p
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	a, err := h.Accounts.UpdateProfile(ctx, middleware.AccountID(c), repository.ProfileUpdate{
		Name:   trimmed(req.Name),
		Phone:  req.Phone,
		Avatar: req.Avatar,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": a})
}
