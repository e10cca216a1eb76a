package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-performance-api/api/swagger"
	"github.com/noah-isme/sma-performance-api/internal/events"
	"github.com/noah-isme/sma-performance-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-performance-api/internal/middleware"
	"github.com/noah-isme/sma-performance-api/internal/models"
	"github.com/noah-isme/sma-performance-api/internal/repository"
	"github.com/noah-isme/sma-performance-api/internal/service"
	"github.com/noah-isme/sma-performance-api/pkg/cache"
	"github.com/noah-isme/sma-performance-api/pkg/config"
	"github.com/noah-isme/sma-performance-api/pkg/database"
	"github.com/noah-isme/sma-performance-api/pkg/jobs"
	"github.com/noah-isme/sma-performance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-performance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-performance-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-performance-api/pkg/storage"
)

// @title School Performance API
// @version 1.0.0
// @description Transcripts, monthly timelines, attendance summaries, class reports and printable exports.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Performance.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, "performance:", logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Performance.CacheTTL, logr, cfg.Performance.CacheEnabled && redisClient != nil)

	accessSvc := service.NewAccessService(repository.NewAccessRepository(db), logr)
	performanceSvc := service.NewPerformanceService(repository.NewPerformanceRepository(db), accessSvc, cacheSvc, metricsSvc, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.WithResponseMeta())
	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	performanceHandler := handler.NewPerformanceHandler(performanceSvc, validate)
	perf := secured.Group("/performance")
	perf.GET("/students/:id/transcript", performanceHandler.Transcript)
	perf.GET("/students/:id/monthly", performanceHandler.Monthly)
	perf.GET("/students/:id/attendance", performanceHandler.Attendance)
	perf.DELETE("/students/:id/cache", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), performanceHandler.InvalidateCache)
	perf.GET("/classes/:id/report", performanceHandler.ClassReport)

	secured.GET("/system/metrics", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), metricsHandler.System)

	var queue *jobs.Queue
	if cfg.Reports.Enabled {
		queue, err = setupReports(ctx, cfg, db, api, secured, performanceSvc, accessSvc, metricsSvc, validate, logr)
		if err != nil {
			logr.Sugar().Fatalw("failed to set up reports", "error", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	if queue != nil {
		queue.Stop()
	}
}

func setupReports(
	ctx context.Context,
	cfg *config.Config,
	db *sqlx.DB,
	public, secured *gin.RouterGroup,
	performanceSvc *service.PerformanceService,
	accessSvc *service.AccessService,
	metricsSvc *service.MetricsService,
	validate *validator.Validate,
	logr *zap.Logger,
) (*jobs.Queue, error) {
	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("report storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(performanceSvc, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr)

	reportRepo := repository.NewReportRepository(db)

	var worker *service.ReportWorker
	if cfg.Events.Enabled {
		publisher, err := events.NewPublisher(cfg.Events, logr)
		if err != nil {
			return nil, fmt.Errorf("event publisher: %w", err)
		}
		go func() {
			<-ctx.Done()
			if err := publisher.Close(); err != nil {
				logr.Sugar().Warnw("failed to close event publisher", "error", err)
			}
		}()
		worker = service.NewReportWorker(reportRepo, exportSvc, publisher, metricsSvc, cfg.Reports.WorkerRetries, logr)
	} else {
		worker = service.NewReportWorker(reportRepo, exportSvc, nil, metricsSvc, cfg.Reports.WorkerRetries, logr)
	}

	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)
	metricsSvc.RegisterGauge("report_queue_depth", "Report jobs waiting for a worker.", func() float64 {
		return float64(queue.Depth())
	})

	reportSvc := service.NewReportService(reportRepo, accessSvc, queue, exportSvc, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	if recovered := reportSvc.RecoverPendingJobs(ctx); recovered > 0 {
		logr.Sugar().Infow("recovered pending report jobs", "count", recovered)
	}
	reportSvc.StartCleanup(ctx)

	reportHandler := handler.NewReportHandler(reportSvc, logr)
	staff := secured.Group("/reports")
	staff.POST("/generate", reportHandler.GenerateReport)
	staff.GET("/status/:id", reportHandler.ReportStatus)
	public.GET("/export/:token", reportHandler.DownloadReport)

	return queue, nil
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
