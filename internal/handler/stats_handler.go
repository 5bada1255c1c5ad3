package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forkline/table-reservation/internal/service"
)

// StatsHandler serves the owner-facing booking metrics endpoint.
type StatsHandler struct {
	Stats *service.StatsService
}

func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	if stats == nil {
		panic("nil service passed to NewStatsHandler")
	}
	return &StatsHandler{Stats: stats}
}

// Bookings aggregates a restaurant's booking metrics over an optional
// date range (date_from / date_to, RFC 3339 or YYYY-MM-DD) plus a live
// waitlist snapshot.
func (h *StatsHandler) Bookings(c echo.Context) error {
	restaurantID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	from, _ := queryTime(c, "date_from")
	to, _ := queryTime(c, "date_to")
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_to must not precede date_from"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	stats, err := h.Stats.ComputeStats(ctx, restaurantID, from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
