package assets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/halcyonlab/imgstash/internal/apperror"
	"github.com/halcyonlab/imgstash/internal/storage"
)

// --- Mocks ---

// mockAssetRepo implements AssetRepository for testing.
type mockAssetRepo struct {
	createFn   func(ctx context.Context, asset *Asset) error
	listFn     func(ctx context.Context, page, pageSize int) ([]Asset, int64, error)
	findByIDFn func(ctx context.Context, id string) (*Asset, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockAssetRepo) Create(ctx context.Context, asset *Asset) error {
	if m.createFn != nil {
		return m.createFn(ctx, asset)
	}
	return nil
}

func (m *mockAssetRepo) List(ctx context.Context, page, pageSize int) ([]Asset, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, page, pageSize)
	}
	return nil, 0, nil
}

func (m *mockAssetRepo) FindByID(ctx context.Context, id string) (*Asset, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("asset not found")
}

func (m *mockAssetRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockAdapter implements storage.Adapter for testing retraction.
type mockAdapter struct {
	name      string
	retractFn func(ctx context.Context, obj *storage.Object) error
}

func (m *mockAdapter) Name() string      { return m.name }
func (m *mockAdapter) FormField() string { return "file" }
func (m *mockAdapter) Configured() bool  { return true }

func (m *mockAdapter) Put(ctx context.Context, up storage.Upload) (*storage.Object, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAdapter) Retract(ctx context.Context, obj *storage.Object) error {
	if m.retractFn != nil {
		return m.retractFn(ctx, obj)
	}
	return nil
}

func (m *mockAdapter) ResolveURL(ctx context.Context, obj *storage.Object) (string, error) {
	return obj.URL, nil
}

func testService(repo AssetRepository, adapters map[string]storage.Adapter) AssetService {
	return NewAssetService(repo, adapters, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- Index ---

func TestIndex_PopulatesAssetFromObject(t *testing.T) {
	var got *Asset
	repo := &mockAssetRepo{
		createFn: func(ctx context.Context, asset *Asset) error {
			got = asset
			return nil
		},
	}

	obj := &storage.Object{
		URL:       "/file/abc",
		FileID:    "abc",
		MessageID: 42,
		FileName:  "cat.png",
	}
	asset, err := testService(repo, nil).Index(
		context.Background(), storage.BackendTelegram, obj, "203.0.113.1", "https://ref.example", 0,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.ID == "" {
		t.Error("expected generated ID")
	}
	if got.URL != "/file/abc" || got.Storage != storage.BackendTelegram {
		t.Errorf("unexpected asset: %+v", got)
	}
	if got.FileID == nil || *got.FileID != "abc" {
		t.Errorf("file ID not carried over: %+v", got.FileID)
	}
	if got.MessageID == nil || *got.MessageID != 42 {
		t.Errorf("message ID not carried over: %+v", got.MessageID)
	}
}

func TestIndex_OmitsEmptyBackendFields(t *testing.T) {
	var got *Asset
	repo := &mockAssetRepo{
		createFn: func(ctx context.Context, asset *Asset) error {
			got = asset
			return nil
		},
	}

	obj := &storage.Object{URL: "https://cdn.example.com/file/cat.png", FileName: "cat.png"}
	_, err := testService(repo, nil).Index(
		context.Background(), storage.BackendR2, obj, "203.0.113.1", "", 0,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FileID != nil || got.MessageID != nil {
		t.Errorf("bucket asset should have nil backend fields: %+v", got)
	}
}

// --- Delete ---

func TestDelete_RetractsThroughMatchingAdapter(t *testing.T) {
	fileID := "abc"
	messageID := int64(42)
	repo := &mockAssetRepo{
		findByIDFn: func(ctx context.Context, id string) (*Asset, error) {
			return &Asset{
				ID: id, URL: "/file/abc", Storage: storage.BackendTelegram,
				FileName: "cat.png", FileID: &fileID, MessageID: &messageID,
			}, nil
		},
	}
	var retracted *storage.Object
	adapters := map[string]storage.Adapter{
		storage.BackendTelegram: &mockAdapter{
			name: storage.BackendTelegram,
			retractFn: func(ctx context.Context, obj *storage.Object) error {
				retracted = obj
				return nil
			},
		},
	}

	if err := testService(repo, adapters).Delete(context.Background(), "a1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retracted == nil {
		t.Fatal("expected retraction")
	}
	if retracted.FileID != "abc" || retracted.MessageID != 42 {
		t.Errorf("retraction lost backend fields: %+v", retracted)
	}
}

func TestDelete_RetractFailureDoesNotFail(t *testing.T) {
	repo := &mockAssetRepo{
		findByIDFn: func(ctx context.Context, id string) (*Asset, error) {
			return &Asset{ID: id, Storage: storage.BackendR2}, nil
		},
	}
	adapters := map[string]storage.Adapter{
		storage.BackendR2: &mockAdapter{
			name: storage.BackendR2,
			retractFn: func(ctx context.Context, obj *storage.Object) error {
				return errors.New("bucket unreachable")
			},
		},
	}

	if err := testService(repo, adapters).Delete(context.Background(), "a1"); err != nil {
		t.Fatalf("retraction failure must not fail the delete: %v", err)
	}
}

func TestDelete_UnknownAssetReturnsNotFound(t *testing.T) {
	err := testService(&mockAssetRepo{}, nil).Delete(context.Background(), "missing")
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		t.Fatalf("expected 404 AppError, got %v", err)
	}
}
