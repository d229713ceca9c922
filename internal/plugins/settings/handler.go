package settings

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/halcyonlab/imgstash/internal/apperror"
)

// Handler serves the admin settings endpoints.
type Handler struct {
	service SettingsService
}

// NewHandler creates a settings handler.
func NewHandler(service SettingsService) *Handler {
	return &Handler{service: service}
}

// Moderation returns the current moderation toggle.
// GET /api/admin/moderation
func (h *Handler) Moderation(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    ModerationState{Enabled: h.service.ModerationEnabled(c.Request().Context())},
	})
}

// UpdateModeration flips the moderation toggle.
// PATCH /api/admin/moderation
func (h *Handler) UpdateModeration(c echo.Context) error {
	var req ModerationState
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if err := h.service.SetModerationEnabled(c.Request().Context(), req.Enabled); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    req,
	})
}
