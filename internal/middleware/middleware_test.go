package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/config"
	"github.com/iliyamo/spacehire/internal/model"
	"github.com/iliyamo/spacehire/internal/utils"
)

const testSecret = "test-secret"

func newContext(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func bearerFor(t *testing.T, id uint64, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, id, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func TestJWTAuth(t *testing.T) {
	t.Run("valid token sets identity", func(t *testing.T) {
		c, rec := newContext(t, bearerFor(t, 7, model.RoleHost))
		require.NoError(t, JWTAuth(testSecret)(ok)(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, uint64(7), AccountID(c))
		assert.Equal(t, model.RoleHost, Role(c))
	})
	t.Run("missing header", func(t *testing.T) {
		c, _ := newContext(t, "")
		var ue *apperr.UnauthenticatedError
		assert.ErrorAs(t, JWTAuth(testSecret)(ok)(c), &ue)
	})
	t.Run("bad signature", func(t *testing.T) {
		tok, err := utils.NewAccessToken("other", 7, model.RoleHost, 5)
		require.NoError(t, err)
		c, _ := newContext(t, "Bearer "+tok.Token)
		var ue *apperr.UnauthenticatedError
		assert.ErrorAs(t, JWTAuth(testSecret)(ok)(c), &ue)
	})
}

func TestOptionalJWT(t *testing.T) {
	t.Run("anonymous passes", func(t *testing.T) {
		c, rec := newContext(t, "")
		require.NoError(t, OptionalJWT(testSecret)(ok)(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Zero(t, AccountID(c))
	})
	t.Run("valid token identifies", func(t *testing.T) {
		c, _ := newContext(t, bearerFor(t, 9, model.RoleGuest))
		require.NoError(t, OptionalJWT(testSecret)(ok)(c))
		assert.Equal(t, uint64(9), AccountID(c))
	})
	t.Run("invalid token is rejected", func(t *testing.T) {
		c, _ := newContext(t, "Bearer garbage")
		var ue *apperr.UnauthenticatedError
		assert.ErrorAs(t, OptionalJWT(testSecret)(ok)(c), &ue)
	})
}

func TestRequireRole(t *testing.T) {
	chain := JWTAuth(testSecret)(RequireRole(model.RoleHost, model.RoleAdmin)(ok))

	cases := []struct {
		name string
		role model.Role
		want error
	}{
		{"host allowed", model.RoleHost, nil},
		{"admin allowed", model.RoleAdmin, nil},
		{"guest forbidden", model.RoleGuest, &apperr.AuthorizationError{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newContext(t, bearerFor(t, 1, tc.role))
			err := chain(c)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			var ae *apperr.AuthorizationError
			assert.ErrorAs(t, err, &ae)
		})
	}

	t.Run("anonymous is unauthenticated", func(t *testing.T) {
		c, _ := newContext(t, "")
		var ue *apperr.UnauthenticatedError
		assert.ErrorAs(t, RequireRole(model.RoleAdmin)(ok)(c), &ue)
	})
}

func TestBuildRateKey(t *testing.T) {
	c, _ := newContext(t, "")
	c.SetPath("/v1/bookings")
	c.Request().RemoteAddr = "10.0.0.5:1234"
	assert.Equal(t, "rl:ip:10.0.0.5:anon:GET /v1/bookings", buildRateKey("rl", c))

	SetIdentity(c, 12, model.RoleGuest)
	assert.Equal(t, "rl:ip:10.0.0.5:acct:12:GET /v1/bookings", buildRateKey("rl", c))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(999))
	assert.Equal(t, 3, retryAfterSeconds(2001))
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	c, rec := newContext(t, "")
	require.NoError(t, NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, log)(ok)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cache := NewResponseCache(config.CacheConfig{Enabled: true}, nil, log)
	c, rec = newContext(t, "")
	require.NoError(t, cache.Middleware()(ok)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	cache.Invalidate(c.Request().Context())
}

func TestCacheKey(t *testing.T) {
	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/spaces")
		return cacheKey("pfx", c)
	}
	assert.Equal(t, key("/v1/spaces?city=Kampala"), key("/v1/spaces?city=Kampala"))
	assert.NotEqual(t, key("/v1/spaces?city=Kampala"), key("/v1/spaces?city=Nairobi"))
	assert.Regexp(t, `^pfx:[0-9a-f]{40}$`, key("/v1/spaces"))
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.overflow)
	_, _ = cw.Write([]byte("def"))
	assert.True(t, cw.overflow)
	assert.Equal(t, "abcdef", rec.Body.String())
}
