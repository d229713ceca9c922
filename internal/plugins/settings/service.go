package settings

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// moderationCacheKey and moderationCacheTTL control the Redis cache for the
// moderation toggle. The flag is read on every upload, so a short cache keeps
// the hot path off the database while an admin toggle still takes effect
// within seconds.
const (
	moderationCacheKey = "settings:moderation_enabled"
	moderationCacheTTL = 30 * time.Second
)

// SettingsService handles business logic for runtime settings. It parses
// string values from the database into typed values and caches the
// upload-path reads.
type SettingsService interface {
	// ModerationEnabled reports whether content moderation is on. Errors
	// resolve to false so a settings outage cannot block uploads.
	ModerationEnabled(ctx context.Context) bool

	// SetModerationEnabled persists the moderation toggle and invalidates
	// its cache.
	SetModerationEnabled(ctx context.Context, enabled bool) error

	// QuotaLimits returns the parsed daily upload caps per client role.
	QuotaLimits(ctx context.Context) (*QuotaLimits, error)

	// SetQuotaLimits validates and persists updated quota caps.
	SetQuotaLimits(ctx context.Context, limits *QuotaLimits) error
}

// settingsService implements SettingsService.
type settingsService struct {
	repo SettingsRepository
	rdb  *redis.Client
}

// NewSettingsService creates a new settings service. rdb may be nil; the
// service then reads straight from the repository.
func NewSettingsService(repo SettingsRepository, rdb *redis.Client) SettingsService {
	return &settingsService{repo: repo, rdb: rdb}
}

// ModerationEnabled reads the toggle through the Redis cache. Cache misses
// and cache failures fall through to the database; database failures resolve
// to false and are logged.
func (s *settingsService) ModerationEnabled(ctx context.Context) bool {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, moderationCacheKey).Result(); err == nil {
			return cached == "true"
		}
	}

	value, err := s.repo.Get(ctx, KeyModerationEnabled)
	if err != nil {
		slog.Warn("reading moderation toggle failed, treating as disabled",
			slog.Any("error", err),
		)
		return false
	}

	enabled, err := strconv.ParseBool(value)
	if err != nil {
		enabled = false
	}

	if s.rdb != nil {
		s.rdb.Set(ctx, moderationCacheKey, strconv.FormatBool(enabled), moderationCacheTTL)
	}
	return enabled
}

// SetModerationEnabled persists the toggle and drops the cached value so the
// change is visible immediately.
func (s *settingsService) SetModerationEnabled(ctx context.Context, enabled bool) error {
	if err := s.repo.Set(ctx, KeyModerationEnabled, strconv.FormatBool(enabled)); err != nil {
		return err
	}
	if s.rdb != nil {
		s.rdb.Del(ctx, moderationCacheKey)
	}
	return nil
}

// QuotaLimits reads both quota keys and parses them. Missing or unparseable
// values fall back to the defaults.
func (s *settingsService) QuotaLimits(ctx context.Context) (*QuotaLimits, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return &QuotaLimits{
		Anonymous: parseInt(all[KeyQuotaAnonymous], DefaultQuotaAnonymous),
		User:      parseInt(all[KeyQuotaUser], DefaultQuotaUser),
	}, nil
}

// SetQuotaLimits validates and persists the caps as separate key-value rows.
func (s *settingsService) SetQuotaLimits(ctx context.Context, limits *QuotaLimits) error {
	if err := limits.Validate(); err != nil {
		return err
	}

	if err := s.repo.Set(ctx, KeyQuotaAnonymous, strconv.Itoa(limits.Anonymous)); err != nil {
		return err
	}
	return s.repo.Set(ctx, KeyQuotaUser, strconv.Itoa(limits.User))
}

// parseInt parses a string to int, returning the fallback on failure.
func parseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
