package ipblock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/halcyonlab/imgstash/internal/apperror"
)

// BlockRepository defines the data access contract for the IP deny list.
type BlockRepository interface {
	// Get returns the block for an IP, or nil if none exists.
	Get(ctx context.Context, ip string) (*Block, error)

	// Upsert creates or replaces the block for an IP.
	Upsert(ctx context.Context, block *Block) error

	// Delete removes the block for an IP. Returns NotFound if absent.
	Delete(ctx context.Context, ip string) error

	// List returns all blocks, newest first.
	List(ctx context.Context) ([]Block, error)
}

// blockRepository implements BlockRepository using MariaDB.
type blockRepository struct {
	db *sql.DB
}

// NewBlockRepository creates a new IP block repository backed by MariaDB.
func NewBlockRepository(db *sql.DB) BlockRepository {
	return &blockRepository{db: db}
}

// Get returns the block for an IP, or nil if none exists.
func (r *blockRepository) Get(ctx context.Context, ip string) (*Block, error) {
	query := `SELECT ip, COALESCE(reason, ''), blocked_at, expires_at
	          FROM ip_blocks WHERE ip = ?`

	var b Block
	err := r.db.QueryRowContext(ctx, query, ip).Scan(&b.IP, &b.Reason, &b.BlockedAt, &b.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("querying block for %s: %w", ip, err))
	}
	return &b, nil
}

// Upsert creates or replaces the block for an IP.
func (r *blockRepository) Upsert(ctx context.Context, block *Block) error {
	query := `INSERT INTO ip_blocks (ip, reason, blocked_at, expires_at)
	          VALUES (?, ?, ?, ?)
	          ON DUPLICATE KEY UPDATE
	              reason = VALUES(reason),
	              blocked_at = VALUES(blocked_at),
	              expires_at = VALUES(expires_at)`

	if _, err := r.db.ExecContext(ctx, query,
		block.IP, block.Reason, block.BlockedAt, block.ExpiresAt,
	); err != nil {
		return apperror.NewInternal(fmt.Errorf("upserting block for %s: %w", block.IP, err))
	}
	return nil
}

// Delete removes the block for an IP.
func (r *blockRepository) Delete(ctx context.Context, ip string) error {
	query := `DELETE FROM ip_blocks WHERE ip = ?`

	result, err := r.db.ExecContext(ctx, query, ip)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting block for %s: %w", ip, err))
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("no block found for this IP")
	}
	return nil
}

// List returns all blocks, newest first.
func (r *blockRepository) List(ctx context.Context) ([]Block, error) {
	query := `SELECT ip, COALESCE(reason, ''), blocked_at, expires_at
	          FROM ip_blocks ORDER BY blocked_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing blocks: %w", err))
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.IP, &b.Reason, &b.BlockedAt, &b.ExpiresAt); err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("scanning block row: %w", err))
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("iterating blocks: %w", err))
	}
	return blocks, nil
}
