// Package main - точка входа офлайн-обучения модели риска AcademIQ.
//
// Trainer отвечает за пакетный цикл модели:
// - Загрузка векторов признаков популяции (из базы или из файла датасета)
// - Обучение k-means со стандартизацией признаков
// - Сохранение артефактов модели в JSON-файл
// - Переклассификация популяции новой моделью и публикация в базу
//
// Обучение никогда не происходит на пути запроса: API читает готовые
// артефакты, trainer запускается по расписанию или вручную.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	// Infrastructure layer
	"github.com/MoeApps/AcademIQ/internal/infrastructure/ml"
	"github.com/MoeApps/AcademIQ/internal/infrastructure/persistence/postgres"

	// Packages
	"github.com/MoeApps/AcademIQ/config"
	"github.com/MoeApps/AcademIQ/internal/domain/features"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
	"github.com/MoeApps/AcademIQ/pkg/logger"
	"github.com/MoeApps/AcademIQ/pkg/retry"
	"github.com/MoeApps/AcademIQ/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	datasetPath := flag.String("dataset", "", "optional JSON dataset to seed the population table before training")
	dryRun := flag.Bool("dry-run", false, "train and report, but do not save artifacts or republish the population")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, *datasetPath, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, datasetPath string, dryRun bool) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	log := logger.New(opts).With(logger.Component("trainer"))

	log.Info("starting AcademIQ trainer",
		logger.Int("clusters", cfg.Trainer.Clusters),
		logger.Int("restarts", cfg.Trainer.Restarts),
		logger.Int64("seed", cfg.Trainer.Seed),
		logger.Bool("dry_run", dryRun),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	var dbConn *postgres.Connection
	err = retry.DatabaseRetrier().Do(ctx, func(ctx context.Context) error {
		var connErr error
		dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		return connErr
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	populationRepo := postgres.NewPopulationRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ИМПОРТ ДАТАСЕТА (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	if datasetPath != "" {
		imported, err := importDataset(ctx, datasetPath, populationRepo)
		if err != nil {
			return fmt.Errorf("failed to import dataset: %w", err)
		}
		log.Info("dataset imported",
			logger.String("path", datasetPath),
			logger.Int("rows", imported))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАГРУЗКА ПОПУЛЯЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	rows, err := populationRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load population: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("population table is empty, nothing to train on")
	}

	vectors := make([]features.Vector, len(rows))
	for i, row := range rows {
		vectors[i] = row.Features
	}
	log.Info("population loaded", logger.Int("students", len(vectors)))

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ОБУЧЕНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	trainCfg := risk.TrainConfig{
		K:             cfg.Trainer.Clusters,
		MaxIterations: cfg.Trainer.MaxIterations,
		Restarts:      cfg.Trainer.Restarts,
		Seed:          cfg.Trainer.Seed,
	}

	started := time.Now()
	artifacts, err := risk.Train(vectors, trainCfg)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	log.Info("training completed",
		logger.Latency(time.Since(started)),
		logger.Int("centroids", len(artifacts.Centroids)))

	scorer, err := risk.NewScorer(artifacts)
	if err != nil {
		return fmt.Errorf("trained artifacts are inconsistent: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ПЕРЕКЛАССИФИКАЦИЯ ПОПУЛЯЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	byLevel := make(map[risk.Level]int)
	for i := range rows {
		assessment, err := scorer.Score(rows[i].Features)
		if err != nil {
			return fmt.Errorf("failed to score student %s: %w", rows[i].StudentID, err)
		}
		rows[i].Cluster = assessment.Cluster
		rows[i].Level = assessment.Level
		rows[i].Recommendation = assessment.Recommendation
		byLevel[assessment.Level]++
	}

	log.Info("population classified",
		logger.Int("low", byLevel[risk.LevelLow]),
		logger.Int("medium", byLevel[risk.LevelMedium]),
		logger.Int("high", byLevel[risk.LevelHigh]))

	if dryRun {
		log.Info("dry run: artifacts and population not persisted")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ПУБЛИКАЦИЯ АРТЕФАКТОВ И ПОПУЛЯЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	outputPath := cfg.Trainer.OutputPath
	if outputPath == "" {
		outputPath = cfg.Model.ArtifactPath
	}
	artifactStore := ml.NewArtifactStore(outputPath)

	err = retry.ArtifactRetrier().Do(ctx, func(ctx context.Context) error {
		return artifactStore.Save(artifacts)
	})
	if err != nil {
		return fmt.Errorf("failed to save artifacts: %w", err)
	}
	log.Info("artifacts saved",
		logger.String("path", outputPath),
		logger.Int64("trained_at_ms", timeutil.ToMillis(artifacts.TrainedAt)))

	if err := populationRepo.UpsertBatch(ctx, rows); err != nil {
		return fmt.Errorf("failed to republish population: %w", err)
	}
	log.Info("population republished", logger.Int("rows", len(rows)))

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DATASET IMPORT
// ══════════════════════════════════════════════════════════════════════════════

// datasetRow - строка внешнего датасета признаков.
// Неизвестные студенты добавляются в популяцию с уровнем UNKNOWN;
// уровень назначит переклассификация после обучения.
type datasetRow struct {
	StudentID string          `json:"student_id"`
	Features  features.Vector `json:"features"`
}

// importDataset загружает датасет признаков в популяционную таблицу.
func importDataset(ctx context.Context, path string, repo *postgres.PopulationRepository) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var dataset []datasetRow
	if err := json.Unmarshal(data, &dataset); err != nil {
		return 0, fmt.Errorf("invalid dataset JSON: %w", err)
	}

	rows := make([]risk.PopulationRow, 0, len(dataset))
	for _, d := range dataset {
		if d.StudentID == "" {
			continue
		}
		rows = append(rows, risk.PopulationRow{
			StudentID: d.StudentID,
			Features:  d.Features,
			Cluster:   -1,
			Level:     risk.LevelUnknown,
		})
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("dataset contains no usable rows")
	}

	if err := repo.UpsertBatch(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
