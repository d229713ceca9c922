package ipblock

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/halcyonlab/imgstash/internal/apperror"
)

// Handler serves the admin IP block endpoints.
type Handler struct {
	service BlockService
}

// NewHandler creates an IP block handler.
func NewHandler(service BlockService) *Handler {
	return &Handler{service: service}
}

// blockRequest is the POST body for creating a block.
type blockRequest struct {
	IP     string `json:"ip"`
	Reason string `json:"reason"`

	// Hours is the block duration; 0 or absent means permanent.
	Hours int `json:"hours"`
}

// List returns all blocks, newest first.
// GET /api/admin/blocks
func (h *Handler) List(c echo.Context) error {
	blocks, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if blocks == nil {
		blocks = []Block{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    blocks,
	})
}

// Create blocks an IP.
// POST /api/admin/blocks
func (h *Handler) Create(c echo.Context) error {
	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if req.IP == "" {
		return apperror.NewBadRequest("ip is required")
	}

	block, err := h.service.Block(c.Request().Context(), req.IP, req.Reason, req.Hours)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"data":    block,
	})
}

// Delete unblocks an IP.
// DELETE /api/admin/blocks?ip=
func (h *Handler) Delete(c echo.Context) error {
	ip := c.QueryParam("ip")
	if ip == "" {
		return apperror.NewBadRequest("ip is required")
	}

	if err := h.service.Unblock(c.Request().Context(), ip); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
	})
}
