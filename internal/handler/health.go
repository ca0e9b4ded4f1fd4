package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness plus the reachability of MySQL and, when
// configured, Redis.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{DB: db, Redis: rdb}
}

// Health handles GET /healthz.  A failing database makes the whole check
// fail with 503; Redis is optional and only reported.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := echo.Map{}
	status := http.StatusOK
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			checks["database"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "up"
		}
	}
	if h.Redis == nil {
		checks["redis"] = "disabled"
	} else if err := h.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "down"
	} else {
		checks["redis"] = "up"
	}
	return c.JSON(status, echo.Map{
		"success": status == http.StatusOK,
		"status":  http.StatusText(status),
		"checks":  checks,
		"time":    time.Now().UTC(),
	})
}
