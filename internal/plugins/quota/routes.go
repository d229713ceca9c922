package quota

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the quota routes on the given admin group.
func RegisterRoutes(adminGroup *echo.Group, h *Handler) {
	adminGroup.GET("/quota", h.Snapshot)
	adminGroup.PATCH("/quota", h.UpdateLimits)
}
