package uploadlog

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the upload log routes on the given admin group.
func RegisterRoutes(adminGroup *echo.Group, h *Handler) {
	adminGroup.GET("/logs", h.Logs)
}
