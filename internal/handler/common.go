package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/forkline/table-reservation/internal/repository"
	"github.com/forkline/table-reservation/internal/service"
)

const dbTimeout = 5 * time.Second

// fail translates domain errors into the API's status codes. Validation
// problems map to 400, lost races and illegal transitions to 409,
// missing rows to 404; anything unclassified is a 500 with a generic
// body so store internals never leak to callers.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrTableUnavailable),
		errors.Is(err, repository.ErrSlotConflict),
		errors.Is(err, repository.ErrStaleStatus),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyQueued):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrWaitlistEntryNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func queryUint(c echo.Context, name string) uint64 {
	v, _ := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return v
}

// queryTime parses a query parameter as RFC 3339, falling back to the
// bare date form.
func queryTime(c echo.Context, name string) (time.Time, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func parsePagination(c echo.Context) repository.Pagination {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	return repository.Pagination{Page: page, Size: size}
}

// pageInfo is the pagination envelope attached to every list response.
type pageInfo struct {
	Page        int   `json:"page"`
	Size        int   `json:"size"`
	Total       int64 `json:"total"`
	TotalPages  int64 `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

func newPageInfo(p repository.Pagination, total int64) pageInfo {
	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.Limit()
	pages := (total + int64(size) - 1) / int64(size)
	return pageInfo{
		Page:        page,
		Size:        size,
		Total:       total,
		TotalPages:  pages,
		HasNext:     int64(page) < pages,
		HasPrevious: page > 1,
	}
}
