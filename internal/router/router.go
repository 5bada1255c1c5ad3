package router // route registration for the reservation API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/forkline/table-reservation/internal/config"
	"github.com/forkline/table-reservation/internal/handler"
	"github.com/forkline/table-reservation/internal/middleware"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Health   *handler.HealthHandler
	Tables   *handler.TableHandler
	Bookings *handler.BookingHandler
	Waitlist *handler.WaitlistHandler
	Stats    *handler.StatsHandler
}

// Register mounts all routes. Everything under /v1 requires a valid
// token; role checks narrow per group. rdb may be nil, which disables
// the cache and rate limiter.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.GET("/healthz", h.Health.Check)

	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(middleware.RoleOwner, middleware.RoleStaff, middleware.RoleCustomer))

	staff := middleware.RequireRole(middleware.RoleOwner, middleware.RoleStaff)
	owner := middleware.RequireRole(middleware.RoleOwner)

	// Table inventory. Creation is an owner operation; manual status
	// flips are shared with staff.
	v1.POST("/tables", h.Tables.Create, owner, limit)
	v1.GET("/tables", h.Tables.List, cache)
	v1.GET("/tables/:id", h.Tables.Get)
	v1.GET("/tables/:id/availability", h.Bookings.Availability)
	v1.PATCH("/tables/:id/status", h.Tables.SetStatus, staff, limit)

	// Booking lifecycle. Any authenticated role may create and read;
	// status transitions are a staff operation.
	v1.POST("/bookings", h.Bookings.Create, limit)
	v1.GET("/bookings", h.Bookings.List, cache)
	v1.GET("/bookings/:id", h.Bookings.Get)
	v1.PATCH("/bookings/:id/status", h.Bookings.SetStatus, staff, limit)
	v1.POST("/bookings/:id/waitlist", h.Bookings.JoinWaitlist, limit)

	// Waitlist entries.
	v1.GET("/waitlist/:id", h.Waitlist.Get)
	v1.DELETE("/waitlist/:id", h.Waitlist.Cancel, limit)

	// Owner metrics.
	v1.GET("/restaurants/:id/bookings/stats", h.Stats.Bookings, owner, cache)
}
