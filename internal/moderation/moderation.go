// Package moderation rates uploaded content against an external moderation
// service. Ratings are advisory integers: 0 is clean, values at or above
// Threshold mean the asset must be withdrawn, and RatingFailed marks a
// rating attempt that did not complete. A failed rating never blocks an
// upload; the pipeline records the sentinel and moves on.
package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/halcyonlab/imgstash/internal/config"
)

const (
	// RatingFailed is recorded when the moderation service could not be
	// reached or answered with something unusable.
	RatingFailed = -1

	// Threshold is the lowest rating that counts as a content violation.
	Threshold = 3

	// classificationViolation is the rating assigned when a classifier-style
	// response flags the asset.
	classificationViolation = 4

	// classificationCutoff is the minimum probability at which a flagged
	// class counts as a violation.
	classificationCutoff = 0.6
)

// Rater rates an asset by its publicly fetchable URL.
type Rater interface {
	// Rate returns the asset's rating, or RatingFailed if the service could
	// not produce one. Rate never returns an error: moderation outages must
	// not break intake.
	Rate(ctx context.Context, assetURL string) int

	// Configured reports whether a moderation provider is set up.
	Configured() bool
}

// Client calls one of two provider styles: a generic templated rating
// endpoint, or the fixed keyed moderation API. The generic endpoint wins
// when both are configured.
type Client struct {
	cfg        config.ModerationConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a moderation client.
func NewClient(cfg config.ModerationConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Configured reports whether any provider is set up.
func (c *Client) Configured() bool { return c.cfg.Configured() }

// Rate fetches a rating for the asset URL. Every failure path logs a warning
// and returns RatingFailed.
func (c *Client) Rate(ctx context.Context, assetURL string) int {
	endpoint := c.requestURL(assetURL)
	if endpoint == "" {
		c.logger.Warn("moderation requested without a configured provider")
		return RatingFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn("moderation request build failed", slog.Any("error", err))
		return RatingFailed
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("moderation service unreachable", slog.Any("error", err))
		return RatingFailed
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.logger.Warn("moderation response unreadable", slog.Any("error", err))
		return RatingFailed
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("moderation service error",
			slog.Int("status", resp.StatusCode),
		)
		return RatingFailed
	}

	rating, err := parseRating(body)
	if err != nil {
		c.logger.Warn("moderation response unparseable", slog.Any("error", err))
		return RatingFailed
	}
	return rating
}

// requestURL builds the provider request URL for an asset. The generic
// endpoint is used as a template: if it already ends with a url= parameter
// the asset URL is appended directly, otherwise a url= parameter is added
// with the right connector.
func (c *Client) requestURL(assetURL string) string {
	escaped := url.QueryEscape(assetURL)

	if ep := c.cfg.RatingEndpoint; ep != "" {
		if strings.HasSuffix(ep, "url=") {
			return ep + escaped
		}
		connector := "?"
		if strings.Contains(ep, "?") {
			connector = "&"
		}
		return ep + connector + "url=" + escaped
	}

	if c.cfg.APIKey != "" {
		return "https://api.moderatecontent.com/moderate/?key=" + url.QueryEscape(c.cfg.APIKey) + "&url=" + escaped
	}

	return ""
}

// parseRating extracts a rating from a provider response. Two shapes are
// accepted: an object carrying rating_index, and a classifier prediction
// array where a high-probability adult class counts as a violation.
func parseRating(body []byte) (int, error) {
	var obj struct {
		RatingIndex *int `json:"rating_index"`
	}
	if err := json.Unmarshal(body, &obj); err == nil && obj.RatingIndex != nil {
		return *obj.RatingIndex, nil
	}

	var preds []struct {
		ClassName   string  `json:"className"`
		Probability float64 `json:"probability"`
	}
	if err := json.Unmarshal(body, &preds); err == nil && len(preds) > 0 {
		for _, p := range preds {
			switch strings.ToLower(p.ClassName) {
			case "porn", "hentai":
				if p.Probability >= classificationCutoff {
					return classificationViolation, nil
				}
			}
		}
		return 0, nil
	}

	return 0, fmt.Errorf("unrecognized rating payload")
}
