package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/config"
	"github.com/iliyamo/spacehire/internal/middleware"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/repository"
	"github.com/iliyamo/spacehire/internal/validate"
)

// AdminHandler serves /v1/admin.  Every route is behind RequireRole(admin).
type AdminHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
	Log      logrus.FieldLogger
}

func NewAdminHandler(cfg config.Config, a *repository.AccountRepo, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Accounts: a, Log: log}
}

type createHostReq struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
}

// CreateHost handles POST /v1/admin/hosts.
func (h *AdminHandler) CreateHost(c echo.Context) error {
	var req createHostReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	acct := &model.Account{
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
		Phone: validate.NormalizePhone(req.Phone),
		Role:  model.RoleHost,
	}
	if err := h.Accounts.Create(ctx, acct, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apperr.Validation("email already registered")
		}
		return err
	}
	h.Log.WithFields(logrus.Fields{"account_id": acct.ID, "admin_id": middleware.AccountID(c)}).Info("host account created")
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "user": acct})
}

// ListUsers handles GET /v1/admin/users?role=&search=&page=&limit=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	f := repository.AccountFilter{
		Role:   model.Role(strings.ToLower(c.QueryParam("role"))),
		Search: c.QueryParam("search"),
	}
	if f.Role != "" && !f.Role.Valid() {
		return apperr.Validation("role must be one of [guest host admin]")
	}
	var err error
	if f.Page, err = queryInt(c, "page"); err != nil {
		return err
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, total, err := h.Accounts.List(ctx, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"users":      list,
		"pagination": newPagination(f.Page, f.Limit, total),
	})
}
