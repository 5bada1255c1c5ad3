package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/forkline/table-reservation/internal/middleware"
	"github.com/forkline/table-reservation/internal/model"
	"github.com/forkline/table-reservation/internal/repository"
	"github.com/forkline/table-reservation/internal/service"
)

// BookingHandler serves the booking lifecycle endpoints. Authentication
// and role checks happen in middleware; the customer id always comes
// from the verified token, never from the request body.
type BookingHandler struct {
	Bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	if bookings == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings}
}

type createBookingReq struct {
	RestaurantID    uint64  `json:"restaurant_id"`
	TableID         uint64  `json:"table_id"`
	BookingType     string  `json:"booking_type"`
	PartySize       uint32  `json:"party_size"`
	BookingDate     string  `json:"booking_date"` // 2006-01-02, optional
	StartTime       string  `json:"start_time"`   // RFC 3339
	EndTime         string  `json:"end_time"`     // RFC 3339
	SpecialRequests *string `json:"special_requests"`
	ContactPhone    string  `json:"contact_phone"`
	ContactEmail    *string `json:"contact_email"`
}

// Create books a table for a slot. The booking commits as confirmed or
// not at all; on a taken table or overlapping slot the caller gets 409.
func (h *BookingHandler) Create(c echo.Context) error {
	callerID := middleware.CallerID(c)
	if callerID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown caller"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC 3339"})
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be RFC 3339"})
	}
	var date time.Time
	if req.BookingDate != "" {
		date, err = time.Parse("2006-01-02", req.BookingDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_date must be YYYY-MM-DD"})
		}
	}
	var bookingType model.BookingType
	if raw := strings.TrimSpace(req.BookingType); raw != "" {
		bookingType, err = model.ParseBookingType(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	b, err := h.Bookings.CreateBooking(ctx, service.CreateBookingRequest{
		RestaurantID:    req.RestaurantID,
		TableID:         req.TableID,
		CustomerID:      callerID,
		BookingType:     bookingType,
		PartySize:       req.PartySize,
		BookingDate:     date,
		StartTime:       start,
		EndTime:         end,
		SpecialRequests: req.SpecialRequests,
		ContactPhone:    strings.TrimSpace(req.ContactPhone),
		ContactEmail:    req.ContactEmail,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Get returns one booking. Customers may only read their own.
func (h *BookingHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	b, err := h.Bookings.GetBooking(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if role, _ := c.Get("role").(string); role == middleware.RoleCustomer && b.CustomerID != middleware.CallerID(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, b)
}

// List returns bookings matching the query filters. Customers are
// always scoped to their own bookings regardless of the filters sent.
func (h *BookingHandler) List(c echo.Context) error {
	f := repository.BookingFilter{
		RestaurantID: queryUint(c, "restaurant_id"),
		TableID:      queryUint(c, "table_id"),
		CustomerID:   queryUint(c, "customer_id"),
	}
	if role, _ := c.Get("role").(string); role == middleware.RoleCustomer {
		f.CustomerID = middleware.CallerID(c)
	}
	if raw := c.QueryParam("status"); raw != "" {
		st, err := model.ParseBookingStatus(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		f.Status = st
	}
	if raw := c.QueryParam("booking_type"); raw != "" {
		bt, err := model.ParseBookingType(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		f.BookingType = bt
	}
	if t, ok := queryTime(c, "date_from"); ok {
		f.DateFrom = t
	}
	if t, ok := queryTime(c, "date_to"); ok {
		f.DateTo = t
	}
	p := parsePagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	items, total, err := h.Bookings.ListBookings(ctx, f, p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page_info": newPageInfo(p, total)})
}

type bookingStatusReq struct {
	Status string  `json:"status"`
	Reason *string `json:"reason"`
}

// SetStatus applies one transition of the booking state machine.
// Illegal jumps and lost concurrent races both come back as 409.
func (h *BookingHandler) SetStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req bookingStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	next, err := model.ParseBookingStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	b, err := h.Bookings.UpdateBookingStatus(ctx, id, next, req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// JoinWaitlist queues the booking's party for the restaurant and
// returns the entry with its assigned position.
func (h *BookingHandler) JoinWaitlist(c echo.Context) error {
	callerID := middleware.CallerID(c)
	if callerID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown caller"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if role, _ := c.Get("role").(string); role == middleware.RoleCustomer {
		b, err := h.Bookings.GetBooking(ctx, id)
		if err != nil {
			return fail(c, err)
		}
		if b.CustomerID != callerID {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
	}
	entry, err := h.Bookings.JoinWaitlist(ctx, id, callerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// Availability reports whether a slot on the table is free of
// conflicting bookings. Preview only; creation re-checks atomically.
func (h *BookingHandler) Availability(c echo.Context) error {
	tableID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	start, okStart := queryTime(c, "start_time")
	end, okEnd := queryTime(c, "end_time")
	if !okStart || !okEnd {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time and end_time are required"})
	}
	date, okDate := queryTime(c, "date")
	if !okDate {
		date = start
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	conflict, err := h.Bookings.CheckSlot(ctx, tableID, date, start, end)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"table_id": tableID, "available": !conflict})
}
