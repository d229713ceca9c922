package uploadlog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler serves the admin upload log endpoints.
type Handler struct {
	service LogService
}

// NewHandler creates an upload log handler.
func NewHandler(service LogService) *Handler {
	return &Handler{service: service}
}

// Logs returns one filtered page of log entries plus dashboard aggregates.
// GET /api/admin/logs?page=&pageSize=&ip=&status=&storage=&search=&compliant=&start=&end=
func (h *Handler) Logs(c echo.Context) error {
	filter := Filter{
		IP:       c.QueryParam("ip"),
		Status:   c.QueryParam("status"),
		Storage:  c.QueryParam("storage"),
		Search:   c.QueryParam("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", defaultPageSize),
	}
	if v := c.QueryParam("compliant"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Compliant = &b
		}
	}
	if day, ok := queryDate(c, "start"); ok {
		filter.Start = day
	}
	if day, ok := queryDate(c, "end"); ok {
		// The end bound covers the whole named day.
		filter.End = day.Add(24*time.Hour - time.Second)
	}

	overview, err := h.service.Overview(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    overview,
	})
}

// queryDate reads a YYYY-MM-DD query parameter.
func queryDate(c echo.Context, name string) (time.Time, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return time.Time{}, false
	}
	day, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(c echo.Context, name string, fallback int) int {
	v := c.QueryParam(name)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
