package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/middleware"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/repository"
)

// ListingHandler serves the public browse endpoints and the host's listing
// management.  Writes drop the response cache that fronts the browse
// endpoints.
type ListingHandler struct {
	Listings *repository.ListingRepo
	Cache    *middleware.ResponseCache
	Log      logrus.FieldLogger
}

func NewListingHandler(l *repository.ListingRepo, cache *middleware.ResponseCache, log logrus.FieldLogger) *ListingHandler {
	return &ListingHandler{Listings: l, Cache: cache, Log: log}
}

type createListingReq struct {
	Name           string      `json:"name" validate:"required,max=100"`
	Description    string      `json:"description" validate:"required,max=2000"`
	Address        string      `json:"address" validate:"required,max=255"`
	City           string      `json:"city" validate:"required,max=100"`
	District       string      `json:"district" validate:"max=100"`
	SpaceType      string      `json:"spaceType" validate:"required,oneof=indoor outdoor rooftop warehouse studio office restaurant event-hall other"`
	Amenities      []string    `json:"amenities" validate:"max=50,dive,max=50"`
	ActivityTypes  []string    `json:"activityTypes" validate:"max=50,dive,max=50"`
	PricePerHour   model.Money `json:"pricePerHour" validate:"required,gt=0"`
	Capacity       int         `json:"capacity" validate:"required,gte=1"`
	InstantBooking bool        `json:"instantBooking"`
}

type updateListingReq struct {
	Name           *string      `json:"name" validate:"omitempty,min=1,max=100"`
	Description    *string      `json:"description" validate:"omitempty,max=2000"`
	Address        *string      `json:"address" validate:"omitempty,min=1,max=255"`
	City           *string      `json:"city" validate:"omitempty,min=1,max=100"`
	District       *string      `json:"district" validate:"omitempty,max=100"`
	SpaceType      *string      `json:"spaceType" validate:"omitempty,oneof=indoor outdoor rooftop warehouse studio office restaurant event-hall other"`
	Amenities      []string     `json:"amenities" validate:"omitempty,max=50,dive,max=50"`
	ActivityTypes  []string     `json:"activityTypes" validate:"omitempty,max=50,dive,max=50"`
	PricePerHour   *model.Money `json:"pricePerHour" validate:"omitempty,gt=0"`
	Capacity       *int         `json:"capacity" validate:"omitempty,gte=1"`
	InstantBooking *bool        `json:"instantBooking"`
}

// Search handles GET /v1/spaces.
func (h *ListingHandler) Search(c echo.Context) error {
	q, err := parseListingQuery(c)
	if err != nil {
		return err
	}
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

// parseListingQuery reads the browse filters from the query string.
func parseListingQuery(c echo.Context) (repository.ListingQuery, error) {
	q := repository.ListingQuery{
		City:         strings.TrimSpace(c.QueryParam("city")),
		SpaceType:    c.QueryParam("spaceType"),
		ActivityType: strings.TrimSpace(c.QueryParam("activityType")),
		Search:       strings.TrimSpace(c.QueryParam("search")),
		Sort:         c.QueryParam("sort"),
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"minCapacity", &q.MinCapacity},
		{"page", &q.Page},
		{"limit", &q.Limit},
	}
	for _, p := range ints {
		v, err := queryInt(c, p.name)
		if err != nil {
			return q, err
		}
		*p.dst = v
	}
	for name, dst := range map[string]*model.Money{"minPrice": &q.MinPrice, "maxPrice": &q.MaxPrice} {
		v, err := queryInt(c, name)
		if err != nil {
			return q, err
		}
		*dst = model.Money(v)
	}
	if q.MinPrice > 0 && q.MaxPrice > 0 && q.MinPrice > q.MaxPrice {
		return q, apperr.Validation("minPrice must not exceed maxPrice")
	}
	if raw := c.QueryParam("instantBooking"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, apperr.Validation("instantBooking must be true or false")
		}
		q.InstantBooking = v
	}
	return q, nil
}

// Featured handles GET /v1/spaces/featured.
func (h *ListingHandler) Featured(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	if limit < 1 || limit > 24 {
		limit = 6
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Listings.Featured(ctx, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "spaces": list})
}

// Get handles GET /v1/spaces/:id.  Inactive listings are not visible.
func (h *ListingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	l, err := h.Listings.GetByID(ctx, id, true)
	if err != nil {
		return notFoundAs(err, "space not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "space": l})
}

// Create handles POST /v1/spaces for hosts and admins.
func (h *ListingHandler) Create(c echo.Context) error {
	var req createListingReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	l := &model.Listing{
		HostID:         middleware.AccountID(c),
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		Address:        strings.TrimSpace(req.Address),
		City:           strings.TrimSpace(req.City),
		District:       strings.TrimSpace(req.District),
		SpaceType:      req.SpaceType,
		Amenities:      req.Amenities,
		ActivityTypes:  req.ActivityTypes,
		PricePerHour:   req.PricePerHour,
		Capacity:       req.Capacity,
		InstantBooking: req.InstantBooking,
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Listings.Create(ctx, l); err != nil {
		return err
	}
	h.Cache.Invalidate(ctx)
	h.Log.WithFields(logrus.Fields{"space_id": l.ID, "host_id": l.HostID}).Info("listing created")
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "space": l})
}

// Update handles PATCH /v1/spaces/:id for the owner or an admin.
func (h *ListingHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateListingReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	a := actor(c)
	l, err := h.Listings.Update(ctx, id, a.AccountID, a.IsAdmin(), repository.ListingUpdate{
		Name:           trimmed(req.Name),
		Description:    trimmed(req.Description),
		Address:        trimmed(req.Address),
		City:           trimmed(req.City),
		District:       trimmed(req.District),
		SpaceType:      req.SpaceType,
		Amenities:      req.Amenities,
		ActivityTypes:  req.ActivityTypes,
		PricePerHour:   req.PricePerHour,
		Capacity:       req.Capacity,
		InstantBooking: req.InstantBooking,
	})
	if err != nil {
		return notFoundAs(err, "space not found")
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "space": l})
}

// Delete handles DELETE /v1/spaces/:id.  The listing is deactivated, never
// removed, so existing reservations keep their reference.
func (h *ListingHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	a := actor(c)
	if err := h.Listings.SoftDelete(ctx, id, a.AccountID, a.IsAdmin()); err != nil {
		return notFoundAs(err, "space not found")
	}
	h.Cache.Invalidate(ctx)
	h.Log.WithFields(logrus.Fields{"space_id": id, "actor_id": a.AccountID}).Info("listing deactivated")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "space deactivated"})
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}
