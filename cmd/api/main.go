// Package main - точка входа HTTP API AcademIQ.
//
// AcademIQ превращает сырые события активности студента в LMS в оценку
// риска неуспеваемости и конкретные рекомендации: кластеризация k-means
// по популяции, объяснение через отклонения от средних, синтез советов
// из пробелов в пререквизитах.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL, Redis, артефакты модели
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application layer
	"github.com/MoeApps/AcademIQ/internal/application/command"
	"github.com/MoeApps/AcademIQ/internal/application/query"

	// Infrastructure layer
	"github.com/MoeApps/AcademIQ/internal/infrastructure/ml"
	"github.com/MoeApps/AcademIQ/internal/infrastructure/persistence/postgres"
	"github.com/MoeApps/AcademIQ/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/MoeApps/AcademIQ/internal/interface/http"

	// Packages
	"github.com/MoeApps/AcademIQ/config"
	"github.com/MoeApps/AcademIQ/internal/domain/gap"
	"github.com/MoeApps/AcademIQ/internal/domain/recommendation"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
	"github.com/MoeApps/AcademIQ/pkg/logger"
	"github.com/MoeApps/AcademIQ/pkg/metrics"
	"github.com/MoeApps/AcademIQ/pkg/retry"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting AcademIQ API",
		logger.String("env", string(cfg.App.Environment)),
		logger.Bool("debug", cfg.App.Debug),
		logger.String("timezone", cfg.App.Timezone),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	var dbConn *postgres.Connection
	err = retry.StartupRetrier().Do(ctx, func(ctx context.Context) error {
		var connErr error
		dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		return connErr
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
	} else {
		appliedCount := 0
		for _, m := range status {
			if m.IsApplied {
				appliedCount++
			}
		}
		log.Info("migrations completed",
			logger.Int("applied", appliedCount),
			logger.Int("total", len(status)))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var snapshotCache command.SnapshotCache
	var latestResults query.LatestResultSource
	var redisCache *redis.Cache

	snapshotCacheEnabled := cfg.Features.IsEnabled(config.FeaturePipelineSnapshotCache, nil)
	if !snapshotCacheEnabled {
		log.Info("snapshot caching disabled by feature flag")
	}

	if !cfg.Redis.Disabled && snapshotCacheEnabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		if cfg.Redis.PoolSize > 0 {
			redisCfg.PoolSize = cfg.Redis.PoolSize
		}

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// Кеш снапшотов опционален: конвейер работает и без него.
			log.Warn("failed to connect to Redis, snapshot caching disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			store := redis.NewSnapshotCache(redisCache, cfg.Redis.SnapshotTTL)
			snapshotCache = store
			latestResults = store
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ЗАГРУЗКА АРТЕФАКТОВ МОДЕЛИ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("loading risk model artifacts...", logger.String("path", cfg.Model.ArtifactPath))

	artifactStore := ml.NewArtifactStore(cfg.Model.ArtifactPath)
	scorer := risk.UnavailableScorer()

	artifacts, err := artifactStore.Load()
	switch {
	case err == nil:
		scorer, err = risk.NewScorer(artifacts)
		if err != nil {
			return fmt.Errorf("failed to build scorer: %w", err)
		}
		metrics.SetModelAvailable(true)
		log.Info("risk model loaded",
			logger.Time("trained_at", artifacts.TrainedAt),
			logger.FeatureCount(len(artifacts.FeatureOrder)))
	case errors.Is(err, ml.ErrArtifactsNotFound):
		if cfg.Model.RequireAtStartup {
			return fmt.Errorf("model artifacts required but not found at %s", cfg.Model.ArtifactPath)
		}
		metrics.SetModelAvailable(false)
		log.Warn("risk model artifacts not found, scoring unavailable until trained",
			logger.String("path", cfg.Model.ArtifactPath))
	default:
		return fmt.Errorf("failed to load model artifacts: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	academicRepo := postgres.NewAcademicRepository(dbConn)
	populationRepo := postgres.NewPopulationRepository(dbConn)
	recommendationRepo := postgres.NewRecommendationRepository(dbConn)

	populationCache := ml.NewPopulationCache(populationRepo, cfg.Model.PopulationRefresh)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	synthesizer := recommendation.NewSynthesizer(time.Now, uuid.NewString)
	bands := gap.GradeBands{
		Weak:   cfg.Risk.WeakGradeBelow,
		Strong: cfg.Risk.StrongGradeAtLeast,
	}

	ingestCmd := command.NewIngestEventsHandler(scorer, snapshotCache, populationRepo, log)
	synthesizeCmd := command.NewSynthesizeRecommendationsHandler(
		academicRepo,
		populationCache,
		recommendationRepo,
		synthesizer,
		gap.DefaultPrerequisites(),
		bands,
		log,
	)

	explainQuery := query.NewExplainStudentHandler(populationCache, risk.Thresholds{
		Below: cfg.Risk.ExplainBelow,
		Above: cfg.Risk.ExplainAbove,
	})
	profileQuery := query.NewGetStudentProfileHandler(academicRepo, populationCache)
	recommendationsQuery := query.NewGetRecommendationsHandler(recommendationRepo)
	coursesQuery := query.NewListCoursesHandler(academicRepo)

	// Read-back последнего результата работает только при живом кеше
	// снимков; без него эндпоинт отвечает 501.
	var latestResultQuery *query.GetLatestResultHandler
	if latestResults != nil {
		latestResultQuery = query.NewGetLatestResultHandler(latestResults)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxRequestBytes = cfg.HTTP.MaxRequestBytes
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled
	httpConfig.Location = cfg.App.Location

	httpDeps := httpserver.Dependencies{
		IngestEventsHandler:              ingestCmd,
		SynthesizeRecommendationsHandler: synthesizeCmd,
		ExplainStudentHandler:            explainQuery,
		GetStudentProfileHandler:         profileQuery,
		GetRecommendationsHandler:        recommendationsQuery,
		GetLatestResultHandler:           latestResultQuery,
		ListCoursesHandler:               coursesQuery,
		Logger:                           log,
		HealthChecker: &healthChecker{
			db:     dbConn,
			cache:  redisCache,
			scorer: scorer,
		},
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ЗАПУСК СЕРВИСА
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)

	go func() {
		log.Info("starting HTTP server", logger.String("address", httpServer.Address()))
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("AcademIQ API is running",
		logger.String("http_address", httpServer.Address()),
		logger.Bool("scoring_available", scorer.Ready()),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown...",
		logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	// База данных и Redis закроются через defer

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTERS
// ══════════════════════════════════════════════════════════════════════════════

// healthChecker aggregates dependency health for /health and /ready.
type healthChecker struct {
	db     *postgres.Connection
	cache  *redis.Cache
	scorer *risk.Scorer
}

// Check implements httpserver.HealthChecker.
// Redis и модель не влияют на Healthy: без них сервис деградирует,
// но продолжает отвечать.
func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return httpserver.HealthStatus{
			Healthy: false,
			Ready:   false,
			Message: "database unreachable",
		}
	}

	status := httpserver.HealthStatus{Healthy: true, Ready: true}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			status.Message = "redis unreachable, snapshot caching degraded"
		}
	}
	if !h.scorer.Ready() && status.Message == "" {
		status.Message = "risk model not loaded, scoring unavailable"
	}

	return status
}
