package upload

import (
	"github.com/labstack/echo/v4"

	"github.com/halcyonlab/imgstash/internal/storage"
)

// RegisterRoutes sets up one upload route per storage backend under the
// given group, e.g. POST /api/upload/r2. extra middleware (rate limiting,
// body limits) is applied to every upload route.
func RegisterRoutes(g *echo.Group, h *Handler, adapters []storage.Adapter, extra ...echo.MiddlewareFunc) {
	for _, adapter := range adapters {
		g.POST("/upload/"+adapter.Name(), h.Upload(adapter), extra...)
	}
}
