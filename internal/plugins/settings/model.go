// Package settings manages runtime configuration stored in the site_settings
// key-value table: the moderation kill switch and the upload quota limits.
// Values are stored as strings and parsed into typed structs by the service
// layer, so new settings need a key constant and nothing else schema-wise.
package settings

import (
	"time"

	"github.com/halcyonlab/imgstash/internal/apperror"
)

// Setting keys in the site_settings table.
const (
	// KeyModerationEnabled toggles content moderation for new uploads.
	KeyModerationEnabled = "moderation_enabled"

	// KeyQuotaAnonymous is the daily upload cap for anonymous clients.
	KeyQuotaAnonymous = "quota_anonymous"

	// KeyQuotaUser is the daily upload cap for authenticated users.
	KeyQuotaUser = "quota_user"
)

// Defaults applied when a key is missing or unparseable.
const (
	DefaultQuotaAnonymous = 1
	DefaultQuotaUser      = 15
)

// SiteSetting represents a single row in the site_settings key-value table.
type SiteSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ModerationState is the admin-facing view of the moderation toggle.
type ModerationState struct {
	Enabled bool `json:"enabled"`
}

// QuotaLimits holds the parsed daily upload caps per client role. A value of
// 0 means uploads for that role are effectively off.
type QuotaLimits struct {
	Anonymous int `json:"anonymous"`
	User      int `json:"user"`
}

// Validate rejects negative caps.
func (q *QuotaLimits) Validate() error {
	if q.Anonymous < 0 {
		return apperror.NewBadRequest("anonymous quota cannot be negative")
	}
	if q.User < 0 {
		return apperror.NewBadRequest("user quota cannot be negative")
	}
	return nil
}
