package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlab/imgstash/internal/config"
)

func testLegacy(t *testing.T, handler http.HandlerFunc) *Legacy {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewLegacy(config.LegacyConfig{
		Endpoint:  srv.URL + "/upload",
		FileField: "image",
		Timeout:   5 * time.Second,
	})
}

func TestLegacyPut_JSONResponse(t *testing.T) {
	l := testLegacy(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("image")
		require.NoError(t, err)
		assert.Equal(t, "pic.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"https://img.example.com/abc.jpg"}`))
	})

	obj, err := l.Put(context.Background(), Upload{
		FileName:    "pic.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("jpegdata"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/abc.jpg", obj.URL)
}

func TestLegacyPut_PlainTextResponse(t *testing.T) {
	l := testLegacy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("https://img.example.com/xyz.png\n"))
	})

	obj, err := l.Put(context.Background(), Upload{
		FileName:    "a.png",
		ContentType: "image/png",
		Data:        []byte{1},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/xyz.png", obj.URL)
}

func TestLegacyPut_NestedDataURL(t *testing.T) {
	l := testLegacy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"url":"https://img.example.com/n.gif"}}`))
	})

	obj, err := l.Put(context.Background(), Upload{FileName: "n.gif", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/n.gif", obj.URL)
}

func TestLegacyPut_ErrorStatus(t *testing.T) {
	l := testLegacy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := l.Put(context.Background(), Upload{FileName: "a.png", Data: []byte{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestLegacyPut_NoURLInResponse(t *testing.T) {
	l := testLegacy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})

	_, err := l.Put(context.Background(), Upload{FileName: "a.png", Data: []byte{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no url")
}

func TestLegacyRetract_NoOp(t *testing.T) {
	l := NewLegacy(config.LegacyConfig{Endpoint: "https://example.com/upload"})
	assert.NoError(t, l.Retract(context.Background(), &Object{URL: "https://x/y.png"}))
}
