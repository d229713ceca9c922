package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/halcyonlab/imgstash/internal/apperror"
	"github.com/halcyonlab/imgstash/internal/moderation"
	"github.com/halcyonlab/imgstash/internal/plugins/assets"
	"github.com/halcyonlab/imgstash/internal/plugins/ipblock"
	"github.com/halcyonlab/imgstash/internal/plugins/uploadlog"
	"github.com/halcyonlab/imgstash/internal/storage"
)

// BlockChecker is the deny-list surface the pipeline needs.
type BlockChecker interface {
	IsBlocked(ctx context.Context, ip string) (*ipblock.Block, error)
	AutoBlock(ctx context.Context, ip string)
}

// QuotaKeeper enforces the per-client daily cap.
type QuotaKeeper interface {
	CheckAndConsume(ctx context.Context, role, key string) bool
}

// FlagSource exposes the moderation kill switch.
type FlagSource interface {
	ModerationEnabled(ctx context.Context) bool
}

// Recorder writes upload log entries.
type Recorder interface {
	Record(ctx context.Context, entry *uploadlog.Entry)
}

// Indexer records stored objects in the asset index.
type Indexer interface {
	Index(ctx context.Context, backend string, obj *storage.Object, ip, referer string, rating int) (*assets.Asset, error)
}

// UploadService runs the intake pipeline.
type UploadService interface {
	// Process takes one upload through deny list, quota, storage, and
	// moderation. On success it returns the stored reference; on any
	// rejection or failure it returns an AppError describing the outcome.
	// Exactly one log entry is recorded either way, except for backends
	// that are not configured at all, which fail before anything worth
	// logging has happened.
	Process(ctx context.Context, adapter storage.Adapter, req *Request) (*Result, error)
}

// uploadService implements UploadService.
type uploadService struct {
	deps   Dependencies
	logger *slog.Logger
}

// Dependencies bundles the pipeline's collaborators.
type Dependencies struct {
	Blocks BlockChecker
	Quota  QuotaKeeper
	Flags  FlagSource
	Logs   Recorder
	Index  Indexer
	Rater  moderation.Rater
}

// NewUploadService creates the intake pipeline service.
func NewUploadService(deps Dependencies, logger *slog.Logger) UploadService {
	return &uploadService{deps: deps, logger: logger}
}

// Process runs the pipeline. Step order matters: the configuration check is
// first, the deny list answers before any validation, quota is consumed only
// for requests that will reach storage, and moderation runs only on
// successfully stored objects.
func (s *uploadService) Process(ctx context.Context, adapter storage.Adapter, req *Request) (*Result, error) {
	deps := s.deps

	// An unconfigured backend is not even addressable; fail before any
	// side effect, including the log.
	if !adapter.Configured() {
		return nil, apperror.NewConfiguration(
			fmt.Sprintf("%s storage is not configured", adapter.Name()))
	}

	entry := &uploadlog.Entry{
		FileName:  req.FileName,
		Storage:   adapter.Name(),
		IP:        req.IP,
		Referer:   req.Referer,
		Compliant: true,
	}

	// Log writes survive client disconnects: every outcome below must leave
	// its row even when the request context is already gone.
	logCtx := context.WithoutCancel(ctx)

	// Deny list first.
	block, err := deps.Blocks.IsBlocked(ctx, req.IP)
	if err != nil {
		s.logger.Warn("deny list check failed, allowing request",
			slog.String("ip", req.IP),
			slog.Any("error", err),
		)
	}
	if block != nil {
		reason := block.Reason
		if reason == "" {
			reason = "your IP address is blocked"
		}
		entry.Status = uploadlog.StatusBlocked
		entry.Compliant = false
		entry.Message = reason
		deps.Logs.Record(logCtx, entry)
		return nil, apperror.NewLocked(reason)
	}

	if req.Invalid == "" && (!req.HasFile || len(req.Data) == 0) {
		req.Invalid = "no valid file"
	}
	if req.Invalid != "" {
		entry.Status = uploadlog.StatusError
		entry.Compliant = false
		entry.Message = req.Invalid
		deps.Logs.Record(logCtx, entry)
		return nil, apperror.NewBadRequest(req.Invalid)
	}

	if !deps.Quota.CheckAndConsume(ctx, req.Role, req.Key) {
		entry.Status = uploadlog.StatusBlocked
		entry.Compliant = false
		entry.Message = "daily upload quota exceeded"
		deps.Logs.Record(logCtx, entry)
		return nil, apperror.NewTooManyRequests("daily upload quota exceeded")
	}

	obj, err := adapter.Put(ctx, storage.Upload{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Data:        req.Data,
	})
	if err != nil {
		// Transport failures are not evidence of abuse; the entry stays
		// compliant but carries the upstream error for diagnosis.
		entry.Status = uploadlog.StatusError
		entry.Message = err.Error()
		deps.Logs.Record(logCtx, entry)

		s.logger.Error("storage backend failure",
			slog.String("storage", adapter.Name()),
			slog.String("ip", req.IP),
			slog.Any("error", err),
		)
		if errors.Is(err, storage.ErrNoFileID) {
			return nil, apperror.NewBadGateway("storage backend returned no file reference")
		}
		return nil, apperror.NewInternal(err)
	}

	rating := s.rate(ctx, adapter, obj)
	entry.Rating = &rating

	// The rating is always computed and recorded when a provider is
	// configured; the toggle gates enforcement only.
	if rating >= moderation.Threshold && deps.Flags.ModerationEnabled(ctx) {
		if err := adapter.Retract(ctx, obj); err != nil {
			s.logger.Error("retracting flagged upload failed",
				slog.String("storage", adapter.Name()),
				slog.String("url", obj.URL),
				slog.Any("error", err),
			)
		}

		entry.Status = uploadlog.StatusBlocked
		entry.Compliant = false
		entry.Message = fmt.Sprintf("content policy violation (rating %d)", rating)
		deps.Logs.Record(logCtx, entry)
		deps.Blocks.AutoBlock(logCtx, req.IP)
		return nil, apperror.NewValidation("content policy violation")
	}

	// The client already holds the stored file, so an index write failure
	// downgrades the log entry but does not fail the upload.
	entry.Status = uploadlog.StatusSuccess
	entry.Compliant = rating < moderation.Threshold
	entry.Message = "stored"
	if _, err := deps.Index.Index(ctx, adapter.Name(), obj, req.IP, req.Referer, rating); err != nil {
		entry.Status = uploadlog.StatusError
		entry.Message = "stored, but asset index write failed"
		s.logger.Error("asset index write failed",
			slog.String("storage", adapter.Name()),
			slog.String("url", obj.URL),
			slog.Any("error", err),
		)
	}
	deps.Logs.Record(logCtx, entry)

	s.logger.Info("upload stored",
		slog.String("storage", adapter.Name()),
		slog.String("ip", req.IP),
		slog.String("file", obj.FileName),
		slog.Int("rating", rating),
	)

	return &Result{
		URL:     obj.URL,
		Code:    200,
		Name:    obj.FileName,
		Msg:     resultMsgOK,
		Referer: req.Referer,
		IP:      req.IP,
		Rating:  rating,
		Time:    time.Now(),
	}, nil
}

// rate runs moderation for a stored object when a provider is configured.
// Returns 0 when moderation never ran, otherwise the computed rating
// (RatingFailed when the attempt failed; a failed rating keeps the upload).
func (s *uploadService) rate(ctx context.Context, adapter storage.Adapter, obj *storage.Object) int {
	deps := s.deps
	if deps.Rater == nil || !deps.Rater.Configured() {
		return 0
	}

	publicURL, err := adapter.ResolveURL(ctx, obj)
	if err != nil {
		s.logger.Warn("resolving asset URL for moderation failed",
			slog.String("storage", adapter.Name()),
			slog.Any("error", err),
		)
		return moderation.RatingFailed
	}

	return deps.Rater.Rate(ctx, publicURL)
}
