package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forkline/table-reservation/internal/middleware"
	"github.com/forkline/table-reservation/internal/service"
)

// WaitlistHandler serves the queue endpoints not tied to a booking.
type WaitlistHandler struct {
	Waitlist *service.WaitlistService
}

func NewWaitlistHandler(waitlist *service.WaitlistService) *WaitlistHandler {
	if waitlist == nil {
		panic("nil service passed to NewWaitlistHandler")
	}
	return &WaitlistHandler{Waitlist: waitlist}
}

// Get returns one waitlist entry. Customers may only read their own.
func (h *WaitlistHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid waitlist entry id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	entry, err := h.Waitlist.GetEntry(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if role, _ := c.Get("role").(string); role == middleware.RoleCustomer && entry.CustomerID != middleware.CallerID(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "waitlist entry not found"})
	}
	return c.JSON(http.StatusOK, entry)
}

// Cancel removes a waiting entry from the queue. Later parties keep
// their positions. Customers may only cancel their own entries.
func (h *WaitlistHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid waitlist entry id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if role, _ := c.Get("role").(string); role == middleware.RoleCustomer {
		entry, err := h.Waitlist.GetEntry(ctx, id)
		if err != nil {
			return fail(c, err)
		}
		if entry.CustomerID != middleware.CallerID(c) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "waitlist entry not found"})
		}
	}
	if err := h.Waitlist.Cancel(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
