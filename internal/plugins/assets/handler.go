package assets

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/halcyonlab/imgstash/internal/apperror"
)

// Handler serves the admin asset endpoints.
type Handler struct {
	service AssetService
}

// NewHandler creates an asset handler.
func NewHandler(service AssetService) *Handler {
	return &Handler{service: service}
}

// List returns one page of assets, newest first.
// GET /api/admin/assets?page=&pageSize=
func (h *Handler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))

	list, err := h.service.List(c.Request().Context(), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    list,
	})
}

// Delete removes an asset and retracts its remote file.
// DELETE /api/admin/assets/:id
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.NewBadRequest("asset id is required")
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
	})
}
