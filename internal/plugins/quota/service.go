package quota

import (
	"context"
	"log/slog"
	"time"

	"github.com/halcyonlab/imgstash/internal/plugins/settings"
)

// recentDays bounds the per-role history in the admin snapshot.
const recentDays = 14

// LimitsProvider supplies the configured quota caps. Implemented by the
// settings service.
type LimitsProvider interface {
	QuotaLimits(ctx context.Context) (*settings.QuotaLimits, error)
	SetQuotaLimits(ctx context.Context, limits *settings.QuotaLimits) error
}

// QuotaService handles business logic for upload quotas.
type QuotaService interface {
	// CheckAndConsume enforces the daily cap for one client and, when the
	// upload is allowed, consumes one unit. key is the IP for anonymous
	// clients and the user ID for authenticated ones. A limit of zero
	// disables the cap for the role. Infrastructure failures fail open:
	// quota is protection, not a point of failure.
	CheckAndConsume(ctx context.Context, role, key string) bool

	// Snapshot returns the admin view of quota state.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// UpdateLimits persists new quota caps.
	UpdateLimits(ctx context.Context, limits *settings.QuotaLimits) error
}

// quotaService implements QuotaService.
type quotaService struct {
	repo   QuotaRepository
	limits LimitsProvider
	logger *slog.Logger
}

// NewQuotaService creates a new quota service.
func NewQuotaService(repo QuotaRepository, limits LimitsProvider, logger *slog.Logger) QuotaService {
	return &quotaService{repo: repo, limits: limits, logger: logger}
}

// CheckAndConsume enforces the daily cap for one client. The check and the
// consume are two statements, so two racing uploads can both pass at the
// boundary; the cap is a throttle, not an accounting invariant.
func (s *quotaService) CheckAndConsume(ctx context.Context, role, key string) bool {
	limits, err := s.limits.QuotaLimits(ctx)
	if err != nil {
		s.logger.Warn("reading quota limits failed, allowing upload",
			slog.Any("error", err),
		)
		return true
	}

	limit := limits.Anonymous
	if role == RoleUser {
		limit = limits.User
	}

	identity := role + ":" + key
	today := time.Now().UTC()

	// Zero means unlimited: skip the cap check but still count the upload
	// so the admin snapshot stays accurate.
	if limit > 0 {
		used, err := s.repo.CountDaily(ctx, identity, today)
		if err != nil {
			s.logger.Warn("reading quota usage failed, allowing upload",
				slog.String("identity", identity),
				slog.Any("error", err),
			)
			return true
		}
		if used >= int64(limit) {
			return false
		}
	}

	if err := s.repo.Consume(ctx, identity, today); err != nil {
		s.logger.Warn("consuming quota failed",
			slog.String("identity", identity),
			slog.Any("error", err),
		)
	}
	return true
}

// Snapshot returns the admin view of quota state.
func (s *quotaService) Snapshot(ctx context.Context) (*Snapshot, error) {
	limits, err := s.limits.QuotaLimits(ctx)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC()

	todayAnon, err := s.repo.SumRoleDay(ctx, RoleAnonymous, today)
	if err != nil {
		return nil, err
	}
	todayUser, err := s.repo.SumRoleDay(ctx, RoleUser, today)
	if err != nil {
		return nil, err
	}
	lifetimeAnon, err := s.repo.SumRoleLifetime(ctx, RoleAnonymous)
	if err != nil {
		return nil, err
	}
	lifetimeUser, err := s.repo.SumRoleLifetime(ctx, RoleUser)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentByRole(ctx, recentDays)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Limits:            *limits,
		Today:             RoleTotals{Anonymous: todayAnon, User: todayUser},
		LifetimeAnonymous: lifetimeAnon,
		LifetimeUser:      lifetimeUser,
		Recent:            recent,
	}, nil
}

// UpdateLimits persists new quota caps through the settings service.
func (s *quotaService) UpdateLimits(ctx context.Context, limits *settings.QuotaLimits) error {
	return s.limits.SetQuotaLimits(ctx, limits)
}
