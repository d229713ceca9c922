package quota

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/halcyonlab/imgstash/internal/apperror"
)

// lifetimeDay is the fixed date under which lifetime counters are stored.
// The primary key is (identity, scope, day), so lifetime rows need a stable
// day value.
var lifetimeDay = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// QuotaRepository defines the data access contract for usage counters.
type QuotaRepository interface {
	// Consume increments both the daily and lifetime counters for an
	// identity by one.
	Consume(ctx context.Context, identity string, day time.Time) error

	// CountDaily returns the identity's consumption for a day.
	CountDaily(ctx context.Context, identity string, day time.Time) (int64, error)

	// SumRoleDay totals one role's consumption for a day across all
	// identities.
	SumRoleDay(ctx context.Context, role string, day time.Time) (int64, error)

	// SumRoleLifetime totals one role's lifetime consumption.
	SumRoleLifetime(ctx context.Context, role string) (int64, error)

	// RecentByRole returns per-role daily totals for the last n days.
	RecentByRole(ctx context.Context, days int) ([]RoleDayCount, error)
}

// quotaRepository implements QuotaRepository using MariaDB.
type quotaRepository struct {
	db *sql.DB
}

// NewQuotaRepository creates a new quota repository backed by MariaDB.
func NewQuotaRepository(db *sql.DB) QuotaRepository {
	return &quotaRepository{db: db}
}

// Consume increments the daily and lifetime counters in one transaction so a
// crash cannot leave them diverging.
func (r *quotaRepository) Consume(ctx context.Context, identity string, day time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("starting quota tx: %w", err))
	}
	defer tx.Rollback()

	query := `INSERT INTO quota_usage (identity, scope, day, count)
	          VALUES (?, ?, ?, 1)
	          ON DUPLICATE KEY UPDATE count = count + 1`

	if _, err := tx.ExecContext(ctx, query, identity, ScopeDaily, day.Format("2006-01-02")); err != nil {
		return apperror.NewInternal(fmt.Errorf("incrementing daily quota for %s: %w", identity, err))
	}
	if _, err := tx.ExecContext(ctx, query, identity, ScopeLifetime, lifetimeDay.Format("2006-01-02")); err != nil {
		return apperror.NewInternal(fmt.Errorf("incrementing lifetime quota for %s: %w", identity, err))
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewInternal(fmt.Errorf("committing quota tx: %w", err))
	}
	return nil
}

// CountDaily returns the identity's consumption for a day.
func (r *quotaRepository) CountDaily(ctx context.Context, identity string, day time.Time) (int64, error) {
	query := `SELECT COALESCE(SUM(count), 0) FROM quota_usage
	          WHERE identity = ? AND scope = ? AND day = ?`

	var count int64
	err := r.db.QueryRowContext(ctx, query, identity, ScopeDaily, day.Format("2006-01-02")).Scan(&count)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("counting daily quota for %s: %w", identity, err))
	}
	return count, nil
}

// SumRoleDay totals one role's consumption for a day. Identities are
// role-prefixed, so the role filter is a prefix match.
func (r *quotaRepository) SumRoleDay(ctx context.Context, role string, day time.Time) (int64, error) {
	query := `SELECT COALESCE(SUM(count), 0) FROM quota_usage
	          WHERE identity LIKE CONCAT(?, ':%') AND scope = ? AND day = ?`

	var total int64
	err := r.db.QueryRowContext(ctx, query, role, ScopeDaily, day.Format("2006-01-02")).Scan(&total)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("summing daily quota for role %s: %w", role, err))
	}
	return total, nil
}

// SumRoleLifetime totals one role's lifetime consumption.
func (r *quotaRepository) SumRoleLifetime(ctx context.Context, role string) (int64, error) {
	query := `SELECT COALESCE(SUM(count), 0) FROM quota_usage
	          WHERE identity LIKE CONCAT(?, ':%') AND scope = ?`

	var total int64
	err := r.db.QueryRowContext(ctx, query, role, ScopeLifetime).Scan(&total)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("summing lifetime quota for role %s: %w", role, err))
	}
	return total, nil
}

// RecentByRole returns per-role daily totals for the last n days.
func (r *quotaRepository) RecentByRole(ctx context.Context, days int) ([]RoleDayCount, error) {
	query := `SELECT SUBSTRING_INDEX(identity, ':', 1) AS role, day, SUM(count)
	          FROM quota_usage
	          WHERE scope = ? AND day >= DATE_SUB(CURDATE(), INTERVAL ? DAY)
	          GROUP BY role, day
	          ORDER BY day, role`

	rows, err := r.db.QueryContext(ctx, query, ScopeDaily, days)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("querying recent quota usage: %w", err))
	}
	defer rows.Close()

	var counts []RoleDayCount
	for rows.Next() {
		var rc RoleDayCount
		var day time.Time
		if err := rows.Scan(&rc.Role, &day, &rc.Count); err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("scanning quota usage row: %w", err))
		}
		rc.Day = day.Format("2006-01-02")
		counts = append(counts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("iterating quota usage: %w", err))
	}
	return counts, nil
}
