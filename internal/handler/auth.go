package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/config"
	"github.com/iliyamo/spacehire/internal/middleware"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/repository"
	"github.com/iliyamo/spacehire/internal/utils"
	"github.com/iliyamo/spacehire/internal/validate"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
	Tokens   *repository.TokenRepo
	Log      logrus.FieldLogger
}

func NewAuthHandler(cfg config.Config, a *repository.AccountRepo, t *repository.TokenRepo, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: a, Tokens: t, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Role     string `json:"role" validate:"omitempty,oneof=guest host"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	Success bool           `json:"success"`
	User    *model.Account `json:"user"`
	Access  tokenPart      `json:"access"`
	Refresh tokenPart      `json:"refresh"`
}

// Register creates a guest or host account and returns a token pair.
// Admin accounts are only seeded or created by other admins.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role := model.RoleGuest
	if req.Role == string(model.RoleHost) {
		role = model.RoleHost
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	acct := &model.Account{
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
		Phone: validate.NormalizePhone(req.Phone),
		Role:  role,
	}
	if err := h.Accounts.Create(ctx, acct, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apperr.Validation("email already registered")
		}
		return err
	}
	h.Log.WithFields(logrus.Fields{"account_id": acct.ID, "role": acct.Role}).Info("account registered")
	return h.issue(c, http.StatusCreated, acct)
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	acct, err := h.Accounts.GetByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Unauthenticated("invalid credentials")
	}
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(acct.PasswordHash, req.Password) {
		return apperr.Unauthenticated("invalid credentials")
	}
	if !acct.IsActive {
		return apperr.Forbidden("account is deactivated")
	}
	return h.issue(c, http.StatusOK, acct)
}

// Refresh exchanges a refresh token for a new pair.  The old token is
// revoked in the same transaction, so each token works once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	oldHash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := requestCtx(c)
	defer cancel()

	accountID, err := h.Tokens.ValidateRefresh(ctx, oldHash)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Unauthenticated("invalid refresh token")
	}
	if err != nil {
		return err
	}
	acct, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !acct.IsActive {
		return apperr.Forbidden("account is deactivated")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, acct.ID, acct.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return err
	}
	if err := h.Tokens.Rotate(ctx, acct.ID, oldHash, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Unauthenticated("invalid refresh token")
		}
		return err
	}
	return c.JSON(http.StatusOK, authResp{
		Success: true,
		User:    acct,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

// Logout revokes the given refresh token, or every token of the caller when
// the body is empty.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.Bind(&req)
	ctx, cancel := requestCtx(c)
	defer cancel()

	var err error
	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		err = h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
	} else {
		err = h.Tokens.RevokeAllForAccount(ctx, middleware.AccountID(c))
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "logged out"})
}

// Me returns the caller's account.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	acct, err := h.Accounts.GetByID(ctx, middleware.AccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": acct})
}

func (h *AuthHandler) issue(c echo.Context, status int, acct *model.Account) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, acct.ID, acct.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return err
	}
	if err := h.Tokens.StoreRefresh(c.Request().Context(), acct.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return err
	}
	return c.JSON(status, authResp{
		Success: true,
		User:    acct,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
