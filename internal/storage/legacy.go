package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/halcyonlab/imgstash/internal/config"
)

// Legacy relays uploads to a third-party image host that accepts multipart
// posts and answers with a direct URL. The host offers no delete API, so
// retraction is a no-op and moderated content can only be blocked from being
// referenced, not removed upstream.
type Legacy struct {
	endpoint   string
	fileField  string
	httpClient *http.Client
}

// NewLegacy creates the legacy image-host adapter.
func NewLegacy(cfg config.LegacyConfig) *Legacy {
	return &Legacy{
		endpoint:   cfg.Endpoint,
		fileField:  cfg.FileField,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the backend tag.
func (l *Legacy) Name() string { return BackendLegacy }

// FormField returns the multipart field name the legacy route expects.
func (l *Legacy) FormField() string {
	if l.fileField == "" {
		return "image"
	}
	return l.fileField
}

// Configured reports whether an upload endpoint is set.
func (l *Legacy) Configured() bool { return l.endpoint != "" }

// Put relays the file and returns the URL the host assigned. The host
// answers either a bare URL string or a small JSON object with a url field;
// both shapes are accepted.
func (l *Legacy) Put(ctx context.Context, up Upload) (*Object, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(l.FormField(), up.FileName)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if _, err := fw.Write(up.Data); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relaying upload: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("legacy host returned status %d", resp.StatusCode)
	}

	url := parseLegacyURL(raw)
	if url == "" {
		return nil, fmt.Errorf("legacy host returned no url")
	}

	return &Object{
		URL:      url,
		FileName: up.FileName,
	}, nil
}

// parseLegacyURL extracts the assigned URL from a response body. JSON object
// shapes {"url": ...} and {"data": {"url": ...}} are tried first, then the
// body is treated as a bare URL string.
func parseLegacyURL(raw []byte) string {
	var obj struct {
		URL  string `json:"url"`
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.URL != "" {
			return obj.URL
		}
		if obj.Data.URL != "" {
			return obj.Data.URL
		}
	}

	s := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return ""
}

// Retract is a no-op: the legacy host has no delete API.
func (l *Legacy) Retract(_ context.Context, _ *Object) error { return nil }

// ResolveURL returns the host-assigned URL directly.
func (l *Legacy) ResolveURL(_ context.Context, obj *Object) (string, error) {
	return obj.URL, nil
}
