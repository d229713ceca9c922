package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/halcyonlab/imgstash/internal/middleware"
	"github.com/halcyonlab/imgstash/internal/moderation"
	"github.com/halcyonlab/imgstash/internal/plugins/assets"
	"github.com/halcyonlab/imgstash/internal/plugins/ipblock"
	"github.com/halcyonlab/imgstash/internal/plugins/quota"
	"github.com/halcyonlab/imgstash/internal/plugins/settings"
	"github.com/halcyonlab/imgstash/internal/plugins/upload"
	"github.com/halcyonlab/imgstash/internal/plugins/uploadlog"
	"github.com/halcyonlab/imgstash/internal/storage"
)

// RegisterRoutes wires every repository, service, and storage adapter, then
// sets up all application routes. This is the single place where the object
// graph is assembled.
func (a *App) RegisterRoutes() error {
	e := a.Echo
	logger := slog.Default()

	// --- Storage Adapters ---

	r2, err := storage.NewR2(a.Config.R2)
	if err != nil {
		return fmt.Errorf("creating r2 adapter: %w", err)
	}
	adapters := []storage.Adapter{
		r2,
		storage.NewTelegram(a.Config.Telegram),
		storage.NewLegacy(a.Config.Legacy),
	}
	adapterByName := make(map[string]storage.Adapter, len(adapters))
	for _, adapter := range adapters {
		adapterByName[adapter.Name()] = adapter
	}

	// --- Repositories and Services ---

	settingsRepo := settings.NewSettingsRepository(a.DB)
	settingsSvc := settings.NewSettingsService(settingsRepo, a.Redis)

	logRepo := uploadlog.NewLogRepository(a.DB)
	logSvc := uploadlog.NewLogService(logRepo, logger)

	blockRepo := ipblock.NewBlockRepository(a.DB)
	blockSvc := ipblock.NewBlockService(blockRepo, logSvc, logger)

	quotaRepo := quota.NewQuotaRepository(a.DB)
	quotaSvc := quota.NewQuotaService(quotaRepo, settingsSvc, logger)

	assetRepo := assets.NewAssetRepository(a.DB)
	assetSvc := assets.NewAssetService(assetRepo, adapterByName, logger)

	rater := moderation.NewClient(a.Config.Moderation, logger)

	uploadSvc := upload.NewUploadService(upload.Dependencies{
		Blocks: blockSvc,
		Quota:  quotaSvc,
		Flags:  settingsSvc,
		Logs:   logSvc,
		Index:  assetSvc,
		Rater:  rater,
	}, logger)

	// --- Public Routes ---

	// Health check endpoint for Docker health monitoring.
	e.GET("/healthz", a.healthz)

	api := e.Group("/api")
	uploadHandler := upload.NewHandler(uploadSvc, a.Config.Upload.MaxSize)
	upload.RegisterRoutes(api, uploadHandler, adapters,
		middleware.RateLimit(a.Redis, a.Config.Upload.RatePerMinute, time.Minute),
	)

	// --- Admin Routes ---

	admin := e.Group("/api/admin", middleware.RequireAdmin(a.Config.Admin))
	settings.RegisterRoutes(admin, settings.NewHandler(settingsSvc))
	uploadlog.RegisterRoutes(admin, uploadlog.NewHandler(logSvc))
	ipblock.RegisterRoutes(admin, ipblock.NewHandler(blockSvc))
	quota.RegisterRoutes(admin, quota.NewHandler(quotaSvc))
	assets.RegisterRoutes(admin, assets.NewHandler(assetSvc))

	return nil
}

// healthz verifies DB and Redis connectivity.
func (a *App) healthz(c echo.Context) error {
	ctx := c.Request().Context()

	if err := a.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"reason": "database unreachable",
		})
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"reason": "redis unreachable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
