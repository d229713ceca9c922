package upload

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/halcyonlab/imgstash/internal/apperror"
	"github.com/halcyonlab/imgstash/internal/storage"
)

// mockUploadService captures the request the handler builds.
type mockUploadService struct {
	processFn func(ctx context.Context, adapter storage.Adapter, req *Request) (*Result, error)
	requests  []*Request
}

func (m *mockUploadService) Process(ctx context.Context, adapter storage.Adapter, req *Request) (*Result, error) {
	m.requests = append(m.requests, req)
	if m.processFn != nil {
		return m.processFn(ctx, adapter, req)
	}
	if req.Invalid != "" {
		return nil, apperror.NewBadRequest(req.Invalid)
	}
	if !req.HasFile {
		return nil, apperror.NewBadRequest("no valid file")
	}
	return &Result{URL: "https://cdn.example.com/file/" + req.FileName, Code: 200, Msg: resultMsgOK}, nil
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Close()
	return body, w.FormDataContentType()
}

func callUpload(t *testing.T, h *Handler, adapter storage.Adapter, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/upload/r2", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	if err := h.Upload(adapter)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec
}

func TestUpload_OversizedFileStillReachesPipeline(t *testing.T) {
	svc := &mockUploadService{}
	h := NewHandler(svc, 8)
	adapter := &mockAdapter{name: storage.BackendR2, configured: true}

	body, contentType := multipartBody(t, "file", "big.png", bytes.Repeat([]byte("x"), 64))
	rec := callUpload(t, h, adapter, body, contentType)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if len(svc.requests) != 1 {
		t.Fatalf("oversized file must still run the pipeline, got %d calls", len(svc.requests))
	}
	req := svc.requests[0]
	if req.Invalid != "file exceeds the size limit" {
		t.Errorf("unexpected validation failure %q", req.Invalid)
	}
	if req.HasFile {
		t.Error("oversized payload must not be marked usable")
	}
	if req.FileName != "big.png" {
		t.Errorf("file name should survive for the log, got %q", req.FileName)
	}
}

func TestUpload_MissingFileStillReachesPipeline(t *testing.T) {
	svc := &mockUploadService{}
	h := NewHandler(svc, 1024)
	adapter := &mockAdapter{name: storage.BackendR2, configured: true}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	w.Close()
	rec := callUpload(t, h, adapter, body, w.FormDataContentType())

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if len(svc.requests) != 1 {
		t.Fatalf("expected one pipeline call, got %d", len(svc.requests))
	}
	if svc.requests[0].HasFile {
		t.Error("expected HasFile=false without a file part")
	}
}

func TestUpload_ValidFileIsRead(t *testing.T) {
	svc := &mockUploadService{}
	h := NewHandler(svc, 1024)
	adapter := &mockAdapter{name: storage.BackendR2, configured: true}

	body, contentType := multipartBody(t, "file", "cat.png", []byte("pngdata"))
	rec := callUpload(t, h, adapter, body, contentType)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	req := svc.requests[0]
	if !req.HasFile || string(req.Data) != "pngdata" || req.FileName != "cat.png" {
		t.Errorf("file not read into request: %+v", req)
	}
}
