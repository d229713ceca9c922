package uploadlog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// --- Mock Repository ---

// mockLogRepo implements LogRepository for testing.
type mockLogRepo struct {
	insertFn     func(ctx context.Context, entry *Entry) error
	listFn       func(ctx context.Context, filter Filter) ([]Entry, int64, error)
	statsFn      func(ctx context.Context) (*Stats, error)
	recentDaysFn func(ctx context.Context, days int) ([]DayCount, error)
	topIPsFn     func(ctx context.Context, limit int) ([]IPCount, error)
	violationsFn func(ctx context.Context, ip string, since time.Time) (int, error)
}

func (m *mockLogRepo) Insert(ctx context.Context, entry *Entry) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, entry)
	}
	entry.ID = 1
	return nil
}

func (m *mockLogRepo) List(ctx context.Context, filter Filter) ([]Entry, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockLogRepo) Stats(ctx context.Context) (*Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &Stats{}, nil
}

func (m *mockLogRepo) RecentDays(ctx context.Context, days int) ([]DayCount, error) {
	if m.recentDaysFn != nil {
		return m.recentDaysFn(ctx, days)
	}
	return nil, nil
}

func (m *mockLogRepo) TopIPs(ctx context.Context, limit int) ([]IPCount, error) {
	if m.topIPsFn != nil {
		return m.topIPsFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockLogRepo) CountViolationsSince(ctx context.Context, ip string, since time.Time) (int, error) {
	if m.violationsFn != nil {
		return m.violationsFn(ctx, ip, since)
	}
	return 0, nil
}

func testService(repo LogRepository) LogService {
	return NewLogService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- Record ---

func TestRecord_SanitizesClientFields(t *testing.T) {
	var got *Entry
	repo := &mockLogRepo{
		insertFn: func(ctx context.Context, entry *Entry) error {
			got = entry
			return nil
		},
	}
	svc := testService(repo)

	svc.Record(context.Background(), &Entry{
		FileName: `<script>alert(1)</script>cat.png`,
		Storage:  "r2",
		IP:       "203.0.113.5",
		Referer:  `<b>https://evil.example</b>`,
		Status:   StatusSuccess,
	})

	if got == nil {
		t.Fatal("expected insert")
	}
	if got.FileName != "cat.png" {
		t.Errorf("file name not sanitized: %q", got.FileName)
	}
	if got.Referer != "https://evil.example" {
		t.Errorf("referer not sanitized: %q", got.Referer)
	}
}

func TestRecord_DefaultsUnknownIP(t *testing.T) {
	var got *Entry
	repo := &mockLogRepo{
		insertFn: func(ctx context.Context, entry *Entry) error {
			got = entry
			return nil
		},
	}
	testService(repo).Record(context.Background(), &Entry{
		FileName: "a.png",
		Storage:  "legacy",
		Status:   StatusError,
	})

	if got.IP != "unknown" {
		t.Errorf("expected unknown IP fallback, got %q", got.IP)
	}
}

func TestRecord_SwallowsInsertFailure(t *testing.T) {
	repo := &mockLogRepo{
		insertFn: func(ctx context.Context, entry *Entry) error {
			return errors.New("db down")
		},
	}
	// Must not panic or propagate.
	testService(repo).Record(context.Background(), &Entry{
		FileName: "a.png",
		Storage:  "r2",
		Status:   StatusSuccess,
	})
}

// --- Overview ---

func TestOverview_ClampsPagination(t *testing.T) {
	var got Filter
	repo := &mockLogRepo{
		listFn: func(ctx context.Context, filter Filter) ([]Entry, int64, error) {
			got = filter
			return nil, 0, nil
		},
	}
	svc := testService(repo)

	cases := []struct {
		name         string
		page, size   int
		wantPage     int
		wantPageSize int
	}{
		{"zero values", 0, 0, 1, defaultPageSize},
		{"negative page", -3, 25, 1, 25},
		{"size below minimum", 1, 1, 1, minPageSize},
		{"size above maximum", 1, 5000, 1, maxPageSize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Overview(context.Background(), Filter{Page: tc.page, PageSize: tc.size})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Page != tc.wantPage || got.PageSize != tc.wantPageSize {
				t.Errorf("expected page %d size %d, got %d/%d",
					tc.wantPage, tc.wantPageSize, got.Page, got.PageSize)
			}
		})
	}
}

func TestOverview_ComputesTotalPages(t *testing.T) {
	repo := &mockLogRepo{
		listFn: func(ctx context.Context, filter Filter) ([]Entry, int64, error) {
			return make([]Entry, 25), 101, nil
		},
	}
	svc := testService(repo)

	overview, err := svc.Overview(context.Background(), Filter{Page: 1, PageSize: 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.Pagination.TotalPages != 5 {
		t.Errorf("expected 5 total pages, got %d", overview.Pagination.TotalPages)
	}
	if overview.Pagination.Total != 101 {
		t.Errorf("expected total 101, got %d", overview.Pagination.Total)
	}
}

func TestOverview_PropagatesListError(t *testing.T) {
	repo := &mockLogRepo{
		listFn: func(ctx context.Context, filter Filter) ([]Entry, int64, error) {
			return nil, 0, errors.New("db down")
		},
	}
	if _, err := testService(repo).Overview(context.Background(), Filter{}); err == nil {
		t.Fatal("expected error")
	}
}
