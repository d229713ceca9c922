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

func testTelegram(t *testing.T, handler http.HandlerFunc) *Telegram {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewTelegram(config.TelegramConfig{
		BotToken:   "test-token",
		ChatID:     "-100123",
		APIBaseURL: srv.URL,
		Timeout:    5 * time.Second,
	})
}

func TestSendMethod(t *testing.T) {
	cases := []struct {
		contentType string
		method      string
		field       string
	}{
		{"image/png", "sendPhoto", "photo"},
		{"image/jpeg", "sendPhoto", "photo"},
		{"video/mp4", "sendVideo", "video"},
		{"audio/mpeg", "sendAudio", "audio"},
		{"application/pdf", "sendDocument", "document"},
		{"application/zip", "sendDocument", "document"},
		{"", "sendDocument", "document"},
	}
	for _, tc := range cases {
		method, field := sendMethod(tc.contentType)
		assert.Equal(t, tc.method, method, "content type %q", tc.contentType)
		assert.Equal(t, tc.field, field, "content type %q", tc.contentType)
	}
}

func TestTelegramPut_PhotoPicksLargestSize(t *testing.T) {
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/bottest-token/sendPhoto")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "-100123", r.FormValue("chat_id"))
		_, _, err := r.FormFile("photo")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{
			"message_id":42,
			"photo":[
				{"file_id":"thumb","file_size":900},
				{"file_id":"full","file_size":52000},
				{"file_id":"medium","file_size":8000}
			]
		}}`))
	})

	obj, err := tg.Put(context.Background(), Upload{
		FileName:    "cat.png",
		ContentType: "image/png",
		Data:        []byte("pngdata"),
	})
	require.NoError(t, err)
	assert.Equal(t, "full", obj.FileID)
	assert.Equal(t, "/file/full", obj.URL)
	assert.Equal(t, int64(42), obj.MessageID)
	assert.Equal(t, "cat.png", obj.FileName)
}

func TestTelegramPut_DocumentFileName(t *testing.T) {
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/sendDocument")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{
			"message_id":7,
			"document":{"file_id":"doc-1","file_name":"report.pdf"}
		}}`))
	})

	obj, err := tg.Put(context.Background(), Upload{
		FileName:    "upload.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF"),
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", obj.FileID)
	assert.Equal(t, "report.pdf", obj.FileName)
}

func TestTelegramPut_MissingFileID(t *testing.T) {
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":9}}`))
	})

	_, err := tg.Put(context.Background(), Upload{
		FileName:    "x.bin",
		ContentType: "application/octet-stream",
		Data:        []byte{1},
	})
	assert.ErrorIs(t, err, ErrNoFileID)
}

func TestTelegramPut_APIError(t *testing.T) {
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	})

	_, err := tg.Put(context.Background(), Upload{
		FileName:    "x.png",
		ContentType: "image/png",
		Data:        []byte{1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramResolveURL(t *testing.T) {
	var base string
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/getFile")
		assert.Equal(t, "abc123", r.URL.Query().Get("file_id"))
		w.Write([]byte(`{"ok":true,"result":{"file_path":"photos/file_1.jpg"}}`))
	})
	base = tg.apiBase

	url, err := tg.ResolveURL(context.Background(), &Object{FileID: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, base+"/file/bottest-token/photos/file_1.jpg", url)
}

func TestTelegramRetract(t *testing.T) {
	var gotMessageID string
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/deleteMessage")
		require.NoError(t, r.ParseForm())
		gotMessageID = r.FormValue("message_id")
		w.Write([]byte(`{"ok":true,"result":true}`))
	})

	err := tg.Retract(context.Background(), &Object{MessageID: 42, ChatID: "-100123"})
	require.NoError(t, err)
	assert.Equal(t, "42", gotMessageID)
}

func TestTelegramRetract_NoMessageID(t *testing.T) {
	tg := NewTelegram(config.TelegramConfig{BotToken: "t", ChatID: "c"})
	assert.NoError(t, tg.Retract(context.Background(), &Object{}))
}
