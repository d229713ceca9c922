package assets

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/halcyonlab/imgstash/internal/storage"
)

// Listing bounds for the admin view.
const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// AssetList is one page of assets with its total count.
type AssetList struct {
	Assets []Asset `json:"assets"`
	Page   int     `json:"page"`
	Total  int64   `json:"total"`
}

// AssetService handles business logic for the asset index.
type AssetService interface {
	// Index records a stored object in the asset index and returns the new
	// asset.
	Index(ctx context.Context, backend string, obj *storage.Object, ip, referer string, rating int) (*Asset, error)

	// List returns one page of assets, newest first.
	List(ctx context.Context, page, pageSize int) (*AssetList, error)

	// Delete removes an asset from the index and retracts the remote file
	// best effort.
	Delete(ctx context.Context, id string) error
}

// assetService implements AssetService.
type assetService struct {
	repo     AssetRepository
	adapters map[string]storage.Adapter
	logger   *slog.Logger
}

// NewAssetService creates a new asset service. adapters maps backend names
// to their storage adapters for retraction on delete.
func NewAssetService(repo AssetRepository, adapters map[string]storage.Adapter, logger *slog.Logger) AssetService {
	return &assetService{repo: repo, adapters: adapters, logger: logger}
}

// Index records a stored object in the asset index.
func (s *assetService) Index(ctx context.Context, backend string, obj *storage.Object, ip, referer string, rating int) (*Asset, error) {
	asset := &Asset{
		ID:       uuid.NewString(),
		URL:      obj.URL,
		Storage:  backend,
		FileName: obj.FileName,
		IP:       ip,
		Referer:  referer,
		Rating:   rating,
	}
	if obj.FileID != "" {
		asset.FileID = &obj.FileID
	}
	if obj.MessageID != 0 {
		asset.MessageID = &obj.MessageID
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// List returns one page of assets, newest first.
func (s *assetService) List(ctx context.Context, page, pageSize int) (*AssetList, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	assets, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	if assets == nil {
		assets = []Asset{}
	}
	return &AssetList{Assets: assets, Page: page, Total: total}, nil
}

// Delete removes an asset from the index, then retracts the remote file. A
// failed retraction only logs: the index row is already gone and the asset
// can no longer be served.
func (s *assetService) Delete(ctx context.Context, id string) error {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	adapter, ok := s.adapters[asset.Storage]
	if !ok {
		s.logger.Warn("no adapter for stored backend, skipping retraction",
			slog.String("asset", id),
			slog.String("storage", asset.Storage),
		)
		return nil
	}

	obj := &storage.Object{URL: asset.URL, FileName: asset.FileName}
	if asset.FileID != nil {
		obj.FileID = *asset.FileID
	}
	if asset.MessageID != nil {
		obj.MessageID = *asset.MessageID
	}

	if err := adapter.Retract(ctx, obj); err != nil {
		s.logger.Warn("retracting deleted asset failed",
			slog.String("asset", id),
			slog.String("storage", asset.Storage),
			slog.Any("error", err),
		)
	}
	return nil
}
