package ipblock

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/halcyonlab/imgstash/internal/apperror"
)

// Auto-block escalation thresholds: a client that racks up this many content
// violations inside the window is blocked permanently.
const (
	autoBlockThreshold = 3
	autoBlockWindow    = 12 * time.Hour
)

// ViolationCounter counts recent content violations for an IP. Implemented
// by the upload log service.
type ViolationCounter interface {
	CountViolationsSince(ctx context.Context, ip string, since time.Time) (int, error)
}

// BlockService handles business logic for the IP deny list.
type BlockService interface {
	// IsBlocked returns the live block entry for an IP, or nil when the IP
	// is not blocked. Expired blocks are removed lazily on the first check
	// after they lapse.
	IsBlocked(ctx context.Context, ip string) (*Block, error)

	// Block denies an IP. hours <= 0 makes the block permanent.
	Block(ctx context.Context, ip, reason string, hours int) (*Block, error)

	// Unblock removes the block for an IP.
	Unblock(ctx context.Context, ip string) error

	// List returns all blocks, newest first.
	List(ctx context.Context) ([]Block, error)

	// AutoBlock escalates after a content violation: when the IP has reached
	// the violation threshold inside the window, it is blocked permanently.
	// Failures are logged and swallowed; escalation is best effort.
	AutoBlock(ctx context.Context, ip string)
}

// blockService implements BlockService.
type blockService struct {
	repo       BlockRepository
	violations ViolationCounter
	logger     *slog.Logger
}

// NewBlockService creates a new IP block service.
func NewBlockService(repo BlockRepository, violations ViolationCounter, logger *slog.Logger) BlockService {
	return &blockService{repo: repo, violations: violations, logger: logger}
}

// IsBlocked returns the live block entry for an IP, or nil. An expired block
// is deleted on the way out, so the table stays self-cleaning without a
// sweeper.
func (s *blockService) IsBlocked(ctx context.Context, ip string) (*Block, error) {
	block, err := s.repo.Get(ctx, ip)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, nil
	}

	if block.Expired(time.Now()) {
		if err := s.repo.Delete(ctx, ip); err != nil {
			s.logger.Warn("removing expired block failed",
				slog.String("ip", ip),
				slog.Any("error", err),
			)
		}
		return nil, nil
	}
	return block, nil
}

// Block denies an IP. hours <= 0 makes the block permanent.
func (s *blockService) Block(ctx context.Context, ip, reason string, hours int) (*Block, error) {
	if net.ParseIP(ip) == nil {
		return nil, apperror.NewBadRequest("invalid IP address")
	}

	block := &Block{
		IP:        ip,
		Reason:    reason,
		BlockedAt: time.Now(),
	}
	if hours > 0 {
		expires := block.BlockedAt.Add(time.Duration(hours) * time.Hour)
		block.ExpiresAt = &expires
	}

	if err := s.repo.Upsert(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// Unblock removes the block for an IP.
func (s *blockService) Unblock(ctx context.Context, ip string) error {
	if net.ParseIP(ip) == nil {
		return apperror.NewBadRequest("invalid IP address")
	}
	return s.repo.Delete(ctx, ip)
}

// List returns all blocks, newest first.
func (s *blockService) List(ctx context.Context) ([]Block, error) {
	return s.repo.List(ctx)
}

// AutoBlock counts the IP's recent violations and blocks permanently at the
// threshold. The violation that triggered this call is expected to be
// recorded already.
func (s *blockService) AutoBlock(ctx context.Context, ip string) {
	if ip == "" || ip == "unknown" {
		return
	}

	count, err := s.violations.CountViolationsSince(ctx, ip, time.Now().Add(-autoBlockWindow))
	if err != nil {
		s.logger.Error("counting violations for auto-block failed",
			slog.String("ip", ip),
			slog.Any("error", err),
		)
		return
	}
	if count < autoBlockThreshold {
		return
	}

	block := &Block{
		IP:        ip,
		Reason:    fmt.Sprintf("auto-blocked: %d content violations within %v", count, autoBlockWindow),
		BlockedAt: time.Now(),
	}
	if err := s.repo.Upsert(ctx, block); err != nil {
		s.logger.Error("auto-block upsert failed",
			slog.String("ip", ip),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Warn("client auto-blocked",
		slog.String("ip", ip),
		slog.Int("violations", count),
	)
}
