package upload

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/halcyonlab/imgstash/internal/apperror"
	"github.com/halcyonlab/imgstash/internal/plugins/quota"
	"github.com/halcyonlab/imgstash/internal/storage"
)

// userHeader names the authenticated user, set by the fronting auth proxy.
// Its presence switches quota accounting from per-IP to per-user.
const userHeader = "X-Auth-User"

// Handler serves the public upload endpoints.
type Handler struct {
	service UploadService
	maxSize int64
}

// NewHandler creates an upload handler. maxSize caps the accepted file size
// in bytes.
func NewHandler(service UploadService, maxSize int64) *Handler {
	return &Handler{service: service, maxSize: maxSize}
}

// Upload returns the handler for one storage backend.
// POST /api/upload/:backend
func (h *Handler) Upload(adapter storage.Adapter) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := &Request{
			IP:      c.RealIP(),
			Referer: c.Request().Referer(),
		}

		req.Role = quota.RoleAnonymous
		req.Key = req.IP
		if user := c.Request().Header.Get(userHeader); user != "" {
			req.Role = quota.RoleUser
			req.Key = user
		}

		// Unusable files are not rejected here: the pipeline runs them
		// through its validation path so the attempt still leaves a log row.
		if file, err := c.FormFile(adapter.FormField()); err == nil {
			req.FileName = file.Filename
			h.readFile(req, file)
		}

		result, err := h.service.Process(c.Request().Context(), adapter, req)
		if err != nil {
			return uploadError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

// readFile loads the multipart file into the request, marking it invalid
// instead of failing when it is oversized or unreadable.
func (h *Handler) readFile(req *Request, file *multipart.FileHeader) {
	if file.Size > h.maxSize {
		req.Invalid = "file exceeds the size limit"
		return
	}

	src, err := file.Open()
	if err != nil {
		req.Invalid = "unreadable file upload"
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxSize+1))
	if err != nil {
		req.Invalid = "unreadable file upload"
		return
	}
	if int64(len(data)) > h.maxSize {
		req.Invalid = "file exceeds the size limit"
		return
	}

	req.HasFile = true
	req.ContentType = file.Header.Get("Content-Type")
	req.Data = data
}

// uploadError renders the legacy error envelope the upload clients expect.
// The admin API uses the global error handler; the upload surface keeps its
// own shape.
func uploadError(c echo.Context, err error) error {
	code := apperror.SafeCode(err)
	message := apperror.SafeMessage(err)

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		c.Logger().Error(err)
	}

	return c.JSON(code, map[string]any{
		"status":  code,
		"message": message,
		"success": false,
	})
}
