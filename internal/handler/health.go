package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness of the service and its dependencies.
type HealthHandler struct {
	DB  *sql.DB
	RDB *redis.Client // optional
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{DB: db, RDB: rdb}
}

// Check pings the database and, when configured, Redis. The database is
// required; Redis only degrades caching and rate limiting, so its state
// is reported but never fails the check.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "down", "database": "unreachable"})
	}
	redisState := "disabled"
	if h.RDB != nil {
		redisState = "ok"
		if err := h.RDB.Ping(ctx).Err(); err != nil {
			redisState = "unreachable"
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "database": "ok", "redis": redisState})
}
