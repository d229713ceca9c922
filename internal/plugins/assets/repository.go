package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/halcyonlab/imgstash/internal/apperror"
)

// AssetRepository defines the data access contract for the asset index.
type AssetRepository interface {
	// Create inserts one asset row.
	Create(ctx context.Context, asset *Asset) error

	// List returns one page of assets, newest first, plus the total count.
	List(ctx context.Context, page, pageSize int) ([]Asset, int64, error)

	// FindByID returns an asset by ID. Returns NotFound if absent.
	FindByID(ctx context.Context, id string) (*Asset, error)

	// Delete removes an asset row. Returns NotFound if absent.
	Delete(ctx context.Context, id string) error
}

// assetRepository implements AssetRepository using MariaDB.
type assetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new asset repository backed by MariaDB.
func NewAssetRepository(db *sql.DB) AssetRepository {
	return &assetRepository{db: db}
}

// Create inserts one asset row.
func (r *assetRepository) Create(ctx context.Context, asset *Asset) error {
	query := `INSERT INTO assets
	          (id, url, storage, file_name, file_id, message_id, ip, referer, rating)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query,
		asset.ID, asset.URL, asset.Storage, asset.FileName,
		asset.FileID, asset.MessageID, asset.IP, asset.Referer, asset.Rating,
	); err != nil {
		return apperror.NewInternal(fmt.Errorf("inserting asset %s: %w", asset.ID, err))
	}
	return nil
}

// List returns one page of assets, newest first, plus the total count.
func (r *assetRepository) List(ctx context.Context, page, pageSize int) ([]Asset, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&total); err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("counting assets: %w", err))
	}

	query := `SELECT id, url, storage, file_name, file_id, message_id,
	                 ip, COALESCE(referer, ''), rating, created_at
	          FROM assets
	          ORDER BY created_at DESC, id DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("listing assets: %w", err))
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(
			&a.ID, &a.URL, &a.Storage, &a.FileName, &a.FileID, &a.MessageID,
			&a.IP, &a.Referer, &a.Rating, &a.CreatedAt,
		); err != nil {
			return nil, 0, apperror.NewInternal(fmt.Errorf("scanning asset row: %w", err))
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("iterating assets: %w", err))
	}
	return assets, total, nil
}

// FindByID returns an asset by ID.
func (r *assetRepository) FindByID(ctx context.Context, id string) (*Asset, error) {
	query := `SELECT id, url, storage, file_name, file_id, message_id,
	                 ip, COALESCE(referer, ''), rating, created_at
	          FROM assets WHERE id = ?`

	var a Asset
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.URL, &a.Storage, &a.FileName, &a.FileID, &a.MessageID,
		&a.IP, &a.Referer, &a.Rating, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("asset not found")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("querying asset %s: %w", id, err))
	}
	return &a, nil
}

// Delete removes an asset row.
func (r *assetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting asset %s: %w", id, err))
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("asset not found")
	}
	return nil
}
