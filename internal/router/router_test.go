package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spacehire/internal/handler"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/utils"
	"github.com/iliyamo/spacehire/internal/validate"
)

const secret = "router-test-secret"

// newServer mounts the routes with empty handlers: only requests rejected
// by middleware (or the health check) may reach this echo instance.
func newServer() *echo.Echo {
	log := logrus.New()
	log.SetOutput(io.Discard)
	e := echo.New()
	e.Validator = validate.EchoValidator{}
	e.HTTPErrorHandler = handler.ErrorHandler(log, false)
	Register(e, Deps{
		JWTSecret: secret,
		Health:    handler.NewHealthHandler(nil, nil),
	})
	return e
}

func call(t *testing.T, e *echo.Echo, method, path string, id uint64, role model.Role) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if id != 0 {
		tok, err := utils.NewAccessToken(secret, id, role, 5)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, call(t, newServer(), http.MethodGet, "/healthz", 0, ""))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newServer()
	routes := []struct{ method, path string }{
		{http.MethodGet, "/v1/me"},
		{http.MethodPatch, "/v1/me"},
		{http.MethodGet, "/v1/me/stats"},
		{http.MethodPost, "/v1/auth/logout"},
		{http.MethodGet, "/v1/bookings"},
		{http.MethodGet, "/v1/bookings/1"},
		{http.MethodPatch, "/v1/bookings/1/status"},
		{http.MethodPost, "/v1/spaces"},
		{http.MethodPatch, "/v1/spaces/1"},
		{http.MethodDelete, "/v1/spaces/1"},
		{http.MethodPost, "/v1/reviews"},
		{http.MethodGet, "/v1/messages"},
		{http.MethodPost, "/v1/messages"},
		{http.MethodPatch, "/v1/messages/1/read"},
		{http.MethodGet, "/v1/admin/users"},
		{http.MethodPost, "/v1/admin/hosts"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, call(t, e, r.method, r.path, 0, ""))
		})
	}
}

func TestRoleRestrictedRoutes(t *testing.T) {
	e := newServer()
	cases := []struct {
		method, path string
		role         model.Role
	}{
		{http.MethodGet, "/v1/admin/users", model.RoleGuest},
		{http.MethodGet, "/v1/admin/users", model.RoleHost},
		{http.MethodPost, "/v1/admin/hosts", model.RoleHost},
		{http.MethodPost, "/v1/spaces", model.RoleGuest},
		{http.MethodPatch, "/v1/spaces/1", model.RoleGuest},
		{http.MethodDelete, "/v1/spaces/1", model.RoleGuest},
	}
	for _, tc := range cases {
		t.Run(string(tc.role)+" "+tc.method+" "+tc.path, func(t *testing.T) {
			assert.Equal(t, http.StatusForbidden, call(t, e, tc.method, tc.path, 7, tc.role))
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, call(t, newServer(), http.MethodGet, "/v1/nope", 0, ""))
}
