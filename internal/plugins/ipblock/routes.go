package ipblock

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the IP block routes on the given admin group.
func RegisterRoutes(adminGroup *echo.Group, h *Handler) {
	adminGroup.GET("/blocks", h.List)
	adminGroup.POST("/blocks", h.Create)
	adminGroup.DELETE("/blocks", h.Delete)
}
