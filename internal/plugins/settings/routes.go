package settings

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the moderation toggle routes on the given admin
// group. Admin authentication is applied by the caller via the group's
// middleware stack.
func RegisterRoutes(adminGroup *echo.Group, h *Handler) {
	adminGroup.GET("/moderation", h.Moderation)
	adminGroup.PATCH("/moderation", h.UpdateModeration)
}
