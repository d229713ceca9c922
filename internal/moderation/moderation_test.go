package moderation

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/halcyonlab/imgstash/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.ModerationConfig{
		RatingEndpoint: srv.URL + "/rate",
		Timeout:        2 * time.Second,
	}, discardLogger())
}

func TestRate_RatingIndexObject(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://cdn.example.com/a.png", r.URL.Query().Get("url"))
		w.Write([]byte(`{"rating_index":2,"rating_letter":"t"}`))
	})

	assert.Equal(t, 2, c.Rate(context.Background(), "https://cdn.example.com/a.png"))
}

func TestRate_ClassifierArray(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{
			"porn above cutoff",
			`[{"className":"Porn","probability":0.91},{"className":"Neutral","probability":0.05}]`,
			classificationViolation,
		},
		{
			"porn below cutoff",
			`[{"className":"Porn","probability":0.2},{"className":"Neutral","probability":0.7}]`,
			0,
		},
		{
			"hentai above cutoff",
			`[{"className":"Hentai","probability":0.75}]`,
			classificationViolation,
		},
		{
			"all clean",
			`[{"className":"Drawing","probability":0.8},{"className":"Neutral","probability":0.15}]`,
			0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			assert.Equal(t, tc.want, c.Rate(context.Background(), "https://x/y.png"))
		})
	}
}

func TestRate_FailurePathsReturnSentinel(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		assert.Equal(t, RatingFailed, c.Rate(context.Background(), "https://x/y.png"))
	})

	t.Run("garbage payload", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		})
		assert.Equal(t, RatingFailed, c.Rate(context.Background(), "https://x/y.png"))
	})

	t.Run("unreachable service", func(t *testing.T) {
		c := NewClient(config.ModerationConfig{
			RatingEndpoint: "http://127.0.0.1:1/rate",
			Timeout:        200 * time.Millisecond,
		}, discardLogger())
		assert.Equal(t, RatingFailed, c.Rate(context.Background(), "https://x/y.png"))
	})

	t.Run("no provider configured", func(t *testing.T) {
		c := NewClient(config.ModerationConfig{}, discardLogger())
		assert.Equal(t, RatingFailed, c.Rate(context.Background(), "https://x/y.png"))
	})
}

func TestRequestURL_Templating(t *testing.T) {
	cases := []struct {
		name     string
		endpoint string
		want     string
	}{
		{
			"trailing url= template",
			"https://rate.example.com/check?url=",
			"https://rate.example.com/check?url=https%3A%2F%2Fx%2Fy.png",
		},
		{
			"bare endpoint gets question mark",
			"https://rate.example.com/check",
			"https://rate.example.com/check?url=https%3A%2F%2Fx%2Fy.png",
		},
		{
			"existing query gets ampersand",
			"https://rate.example.com/check?key=k",
			"https://rate.example.com/check?key=k&url=https%3A%2F%2Fx%2Fy.png",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClient(config.ModerationConfig{RatingEndpoint: tc.endpoint}, discardLogger())
			assert.Equal(t, tc.want, c.requestURL("https://x/y.png"))
		})
	}
}

func TestRequestURL_FixedProvider(t *testing.T) {
	c := NewClient(config.ModerationConfig{APIKey: "secret"}, discardLogger())
	got := c.requestURL("https://x/y.png")
	assert.Equal(t, "https://api.moderatecontent.com/moderate/?key=secret&url=https%3A%2F%2Fx%2Fy.png", got)
}
