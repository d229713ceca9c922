package quota

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/halcyonlab/imgstash/internal/apperror"
	"github.com/halcyonlab/imgstash/internal/plugins/settings"
)

// Handler serves the admin quota endpoints.
type Handler struct {
	service QuotaService
}

// NewHandler creates a quota handler.
func NewHandler(service QuotaService) *Handler {
	return &Handler{service: service}
}

// Snapshot returns the configured limits and current consumption.
// GET /api/admin/quota
func (h *Handler) Snapshot(c echo.Context) error {
	snapshot, err := h.service.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    snapshot,
	})
}

// UpdateLimits persists new quota caps.
// PATCH /api/admin/quota
func (h *Handler) UpdateLimits(c echo.Context) error {
	var req settings.QuotaLimits
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if err := h.service.UpdateLimits(c.Request().Context(), &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    req,
	})
}
