package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/forkline/table-reservation/internal/model"
	"github.com/forkline/table-reservation/internal/repository"
)

// TableHandler serves the table inventory endpoints. Status flips here
// cover only the staff-operable states; booking-driven flips happen in
// the booking store.
type TableHandler struct {
	Tables *repository.TableRepo
}

func NewTableHandler(tables *repository.TableRepo) *TableHandler {
	if tables == nil {
		panic("nil repository passed to NewTableHandler")
	}
	return &TableHandler{Tables: tables}
}

type createTableReq struct {
	RestaurantID uint64   `json:"restaurant_id"`
	TableNumber  string   `json:"table_number"`
	Capacity     uint32   `json:"capacity"`
	Location     *string  `json:"location"`
	Features     []string `json:"features"`
}

// Create registers a new table. New tables start available.
func (h *TableHandler) Create(c echo.Context) error {
	var req createTableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.TableNumber = strings.TrimSpace(req.TableNumber)
	if req.RestaurantID == 0 || req.TableNumber == "" || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "restaurant_id, table_number and capacity are required"})
	}

	t := &model.Table{
		RestaurantID: req.RestaurantID,
		TableNumber:  req.TableNumber,
		Capacity:     req.Capacity,
		Status:       model.TableAvailable,
		Location:     req.Location,
		Features:     req.Features,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Tables.Create(ctx, t); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Get returns a single table.
func (h *TableHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	t, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// List returns a restaurant's tables with optional status, capacity and
// feature filters.
func (h *TableHandler) List(c echo.Context) error {
	restaurantID := queryUint(c, "restaurant_id")
	if restaurantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "restaurant_id is required"})
	}
	f := repository.TableFilter{
		RestaurantID: restaurantID,
		Feature:      c.QueryParam("feature"),
	}
	if raw := c.QueryParam("status"); raw != "" {
		st := model.TableStatus(raw)
		if !model.ValidTableStatus(st) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown table status"})
		}
		f.Status = st
	}
	if raw := c.QueryParam("min_capacity"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_capacity"})
		}
		f.MinCapacity = uint32(n)
	}
	p := parsePagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	items, total, err := h.Tables.List(ctx, f, p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page_info": newPageInfo(p, total)})
}

type tableStatusReq struct {
	Status string `json:"status"`
}

// SetStatus flips a table between the staff-operable states. Requests
// for reserved or occupied are rejected; those belong to the booking
// lifecycle.
func (h *TableHandler) SetStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req tableStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	st := model.TableStatus(req.Status)
	if !model.ManualTableStatus(st) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be available, cleaning or maintenance"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Tables.SetManualStatus(ctx, id, st); err != nil {
		return fail(c, err)
	}
	t, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}
