package assets

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the asset index routes on the given admin group.
func RegisterRoutes(adminGroup *echo.Group, h *Handler) {
	adminGroup.GET("/assets", h.List)
	adminGroup.DELETE("/assets/:id", h.Delete)
}
