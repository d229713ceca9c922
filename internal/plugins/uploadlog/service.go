package uploadlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/halcyonlab/imgstash/internal/sanitize"
)

// Listing and aggregate bounds for the admin view.
const (
	defaultPageSize = 25
	minPageSize     = 5
	maxPageSize     = 100

	recentDays  = 14
	topIPsLimit = 10

	// maxFieldLen caps the client-controlled text columns.
	maxFieldLen = 255
)

// LogService handles business logic for the upload log.
type LogService interface {
	// Record writes one entry, sanitizing client-controlled fields first.
	// Failures are logged and swallowed: losing a log line must never fail
	// the upload it describes.
	Record(ctx context.Context, entry *Entry)

	// Overview returns one filtered page of entries plus the admin
	// aggregates.
	Overview(ctx context.Context, filter Filter) (*Overview, error)

	// CountViolationsSince counts content violations for an IP after the
	// given time.
	CountViolationsSince(ctx context.Context, ip string, since time.Time) (int, error)
}

// logService implements LogService.
type logService struct {
	repo   LogRepository
	logger *slog.Logger
}

// NewLogService creates a new upload log service.
func NewLogService(repo LogRepository, logger *slog.Logger) LogService {
	return &logService{repo: repo, logger: logger}
}

// Record sanitizes and writes one entry. Client-controlled fields pass
// through the markup stripper before touching the database, so the admin UI
// can render them without further escaping.
func (s *logService) Record(ctx context.Context, entry *Entry) {
	entry.FileName = sanitize.TextN(entry.FileName, maxFieldLen)
	entry.Referer = sanitize.TextN(entry.Referer, maxFieldLen)
	entry.Message = sanitize.TextN(entry.Message, maxFieldLen)
	if entry.IP == "" {
		entry.IP = "unknown"
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error("recording upload log entry failed",
			slog.String("ip", entry.IP),
			slog.String("storage", entry.Storage),
			slog.String("status", entry.Status),
			slog.Any("error", err),
		)
	}
}

// Overview returns one filtered page of entries plus the aggregates.
func (s *logService) Overview(ctx context.Context, filter Filter) (*Overview, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize < minPageSize {
		filter.PageSize = minPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.RecentDays(ctx, recentDays)
	if err != nil {
		return nil, err
	}

	topIPs, err := s.repo.TopIPs(ctx, topIPsLimit)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))

	return &Overview{
		Pagination: Pagination{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			Total:      total,
			TotalPages: totalPages,
		},
		Logs:   entries,
		Stats:  *stats,
		Recent: recent,
		TopIPs: topIPs,
	}, nil
}

// CountViolationsSince delegates to the repository.
func (s *logService) CountViolationsSince(ctx context.Context, ip string, since time.Time) (int, error) {
	return s.repo.CountViolationsSince(ctx, ip, since)
}
