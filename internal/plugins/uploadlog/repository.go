package uploadlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/halcyonlab/imgstash/internal/apperror"
)

// LogRepository defines the data access contract for upload log entries.
type LogRepository interface {
	// Insert writes one entry and sets its ID.
	Insert(ctx context.Context, entry *Entry) error

	// List returns one filtered page of entries, newest first, plus the
	// total matching count.
	List(ctx context.Context, filter Filter) ([]Entry, int64, error)

	// Stats returns aggregate counts across all entries.
	Stats(ctx context.Context) (*Stats, error)

	// RecentDays returns per-day upload counts for the last n days.
	RecentDays(ctx context.Context, days int) ([]DayCount, error)

	// TopIPs returns the worst-offending client IPs, most violations first.
	TopIPs(ctx context.Context, limit int) ([]IPCount, error)

	// CountViolationsSince counts non-compliant entries for an IP after the
	// given time. Used by the auto-block escalation.
	CountViolationsSince(ctx context.Context, ip string, since time.Time) (int, error)
}

// logRepository implements LogRepository using MariaDB.
type logRepository struct {
	db *sql.DB
}

// NewLogRepository creates a new upload log repository backed by MariaDB.
func NewLogRepository(db *sql.DB) LogRepository {
	return &logRepository{db: db}
}

// Insert writes one entry and sets its ID.
func (r *logRepository) Insert(ctx context.Context, entry *Entry) error {
	query := `INSERT INTO upload_logs
	          (file_name, storage, ip, referer, rating, compliant, status, message)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		entry.FileName, entry.Storage, entry.IP, entry.Referer,
		entry.Rating, entry.Compliant, entry.Status, entry.Message,
	)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("inserting upload log: %w", err))
	}
	entry.ID, _ = result.LastInsertId()
	return nil
}

// List returns one filtered page of entries, newest first, plus the total
// matching count. The WHERE clause is built dynamically from the filter.
func (r *logRepository) List(ctx context.Context, filter Filter) ([]Entry, int64, error) {
	var conditions []string
	var args []any

	if filter.IP != "" {
		conditions = append(conditions, "ip = ?")
		args = append(args, filter.IP)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Storage != "" {
		conditions = append(conditions, "storage = ?")
		args = append(args, filter.Storage)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(file_name LIKE ? OR message LIKE ? OR referer LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Compliant != nil {
		conditions = append(conditions, "compliant = ?")
		args = append(args, *filter.Compliant)
	}
	if !filter.Start.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Start)
	}
	if !filter.End.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, filter.End)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM upload_logs" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("counting upload logs: %w", err))
	}

	query := `SELECT id, file_name, storage, ip, COALESCE(referer, ''), rating,
	                 compliant, status, COALESCE(message, ''), created_at
	          FROM upload_logs` + where + `
	          ORDER BY created_at DESC, id DESC
	          LIMIT ? OFFSET ?`
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("listing upload logs: %w", err))
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.FileName, &e.Storage, &e.IP, &e.Referer, &e.Rating,
			&e.Compliant, &e.Status, &e.Message, &e.CreatedAt,
		); err != nil {
			return nil, 0, apperror.NewInternal(fmt.Errorf("scanning upload log row: %w", err))
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("iterating upload logs: %w", err))
	}
	return entries, total, nil
}

// Stats returns aggregate counts across all entries in a single scan.
func (r *logRepository) Stats(ctx context.Context) (*Stats, error) {
	query := `SELECT COUNT(*),
	                 COALESCE(SUM(status = 'success'), 0),
	                 COALESCE(SUM(status = 'blocked'), 0),
	                 COALESCE(SUM(status = 'error'), 0),
	                 COALESCE(SUM(NOT compliant), 0)
	          FROM upload_logs`

	var s Stats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.Total, &s.Success, &s.Blocked, &s.Failed, &s.Violations,
	)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("querying upload log stats: %w", err))
	}
	return &s, nil
}

// RecentDays returns per-day upload and violation counts for the last n
// days. Days with no uploads are absent; the chart renderer fills gaps.
func (r *logRepository) RecentDays(ctx context.Context, days int) ([]DayCount, error) {
	query := `SELECT DATE(created_at) AS day, COUNT(*),
	                 COALESCE(SUM(NOT compliant), 0)
	          FROM upload_logs
	          WHERE created_at >= DATE_SUB(CURDATE(), INTERVAL ? DAY)
	          GROUP BY day
	          ORDER BY day`

	rows, err := r.db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("querying recent upload counts: %w", err))
	}
	defer rows.Close()

	var counts []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Total, &dc.Violations); err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("scanning day count row: %w", err))
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("iterating day counts: %w", err))
	}
	return counts, nil
}

// TopIPs returns the worst-offending client IPs: most violations first, ties
// broken by total uploads. Entries without an IP are skipped.
func (r *logRepository) TopIPs(ctx context.Context, limit int) ([]IPCount, error) {
	query := `SELECT ip, COUNT(*) AS uploads,
	                 COALESCE(SUM(NOT compliant), 0) AS violations
	          FROM upload_logs
	          WHERE ip <> ''
	          GROUP BY ip
	          ORDER BY violations DESC, uploads DESC
	          LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("querying top offenders: %w", err))
	}
	defer rows.Close()

	var counts []IPCount
	for rows.Next() {
		var ic IPCount
		if err := rows.Scan(&ic.IP, &ic.Total, &ic.Violations); err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("scanning top offender row: %w", err))
		}
		counts = append(counts, ic)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("iterating top offenders: %w", err))
	}
	return counts, nil
}

// CountViolationsSince counts non-compliant entries for an IP after the
// given time.
func (r *logRepository) CountViolationsSince(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM upload_logs
	          WHERE ip = ? AND NOT compliant AND created_at >= ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, ip, since).Scan(&count); err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("counting violations for %s: %w", ip, err))
	}
	return count, nil
}
