// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"time"

	"github.com/MoeApps/AcademIQ/internal/domain/event"
	"github.com/MoeApps/AcademIQ/internal/domain/features"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
	"github.com/MoeApps/AcademIQ/pkg/logger"
	"github.com/MoeApps/AcademIQ/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// INGEST EVENTS COMMAND
// Принимает сырую выгрузку активности студента, прогоняет конвейер
// normalize -> aggregate -> score и кеширует последний результат.
// Конвейер stateless и request-scoped: вызовы для разных студентов
// полностью независимы и могут идти параллельно.
// ══════════════════════════════════════════════════════════════════════════════

// IngestEventsCommand contains a raw activity payload for one student.
type IngestEventsCommand struct {
	// Payload is the raw LMS export for one student.
	Payload event.RawPayload

	// AsOf is the explicit evaluation instant. Lateness and calendar
	// days are derived from it; zero value means "now".
	AsOf time.Time

	// SkipScoring disables the scoring step: the caller only wants
	// the feature vector (the bare /ingest contract).
	SkipScoring bool
}

// Validate validates the command.
func (c *IngestEventsCommand) Validate() error {
	if c.Payload.StudentID == "" {
		return errors.New("ingest_events: student_id is required")
	}
	c.AsOf = timeutil.OrNow(c.AsOf)
	return nil
}

// IngestEventsResult contains the computed pipeline output.
type IngestEventsResult struct {
	// StudentID is the student the payload belongs to.
	StudentID string

	// Features is the fully populated feature vector.
	Features features.Vector

	// DroppedRecords is the number of malformed records the
	// normalizer silently discarded.
	DroppedRecords int

	// Assessment is the risk assessment; nil when scoring was skipped
	// or the model is unavailable.
	Assessment *risk.Assessment

	// ComputedAt is the as-of instant the pipeline ran against.
	ComputedAt time.Time
}

// StudentSnapshot - последний результат конвейера для студента,
// сохраняемый в кеше (замена in-memory store исходного бэкенда).
type StudentSnapshot struct {
	StudentID  string           `json:"student_id"`
	Features   features.Vector  `json:"features"`
	Assessment *risk.Assessment `json:"assessment,omitempty"`
	ComputedAt time.Time        `json:"computed_at"`
}

// SnapshotCache хранит последний снимок конвейера по студенту.
// Реализация - Redis в infrastructure/persistence/redis.
type SnapshotCache interface {
	SetLatest(ctx context.Context, snapshot StudentSnapshot) error
}

// PopulationWriter сохраняет свежескоренную строку в популяционную
// таблицу. Реализация - PopulationRepository поверх risk_profiles.
type PopulationWriter interface {
	Upsert(ctx context.Context, row risk.PopulationRow) error
}

// IngestEventsHandler handles IngestEventsCommand.
type IngestEventsHandler struct {
	scorer     *risk.Scorer
	cache      SnapshotCache
	population PopulationWriter
	log        *logger.Logger
}

// NewIngestEventsHandler creates a new IngestEventsHandler.
// scorer may be in the Unavailable state; cache and population may be
// nil: the pipeline still produces feature vectors.
func NewIngestEventsHandler(scorer *risk.Scorer, cache SnapshotCache, population PopulationWriter, log *logger.Logger) *IngestEventsHandler {
	if scorer == nil {
		scorer = risk.UnavailableScorer()
	}
	if log == nil {
		log = logger.Default()
	}
	return &IngestEventsHandler{
		scorer:     scorer,
		cache:      cache,
		population: population,
		log:        log,
	}
}

// Handle runs the pipeline for one payload.
//
// Malformed individual records never fail the batch (the normalizer
// drops them); a cold model degrades the result to features-only and
// is reported in the result, not as a handler error.
func (h *IngestEventsHandler) Handle(ctx context.Context, cmd IngestEventsCommand) (*IngestEventsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	set, err := event.Normalize(cmd.Payload)
	if err != nil && !errors.Is(err, event.ErrEmptyPayload) {
		return nil, err
	}
	// Пустой payload - это валидный вырожденный случай: все признаки
	// нулевые, а не арифметическая ошибка.

	h.log.Debug("payload normalized",
		logger.StudentID(cmd.Payload.StudentID),
		logger.Int("sessions", len(set.Sessions)),
		logger.Int("assignments", set.TotalAssignments()),
		logger.Int("quiz_attempts", set.TotalQuizAttempts()))

	vector := features.Aggregate(set, cmd.AsOf)

	result := &IngestEventsResult{
		StudentID:      cmd.Payload.StudentID,
		Features:       vector,
		DroppedRecords: set.Dropped,
		ComputedAt:     cmd.AsOf,
	}

	if !cmd.SkipScoring {
		assessment, scoreErr := h.scorer.Score(vector)
		switch {
		case scoreErr == nil:
			result.Assessment = &assessment
		case errors.Is(scoreErr, risk.ErrModelUnavailable):
			h.log.Warn("scoring skipped: model unavailable",
				logger.StudentID(cmd.Payload.StudentID))
		default:
			return nil, scoreErr
		}
	}

	if h.population != nil && result.Assessment != nil {
		row := risk.PopulationRow{
			StudentID:      result.StudentID,
			Features:       result.Features,
			Cluster:        result.Assessment.Cluster,
			Level:          result.Assessment.Level,
			Recommendation: result.Assessment.Recommendation,
		}
		if upsertErr := h.population.Upsert(ctx, row); upsertErr != nil {
			// Таблица - best effort на этом пути: результат уже вычислен.
			h.log.Warn("failed to persist population row",
				logger.StudentID(result.StudentID),
				logger.Err(upsertErr))
		}
	}

	if h.cache != nil {
		snapshot := StudentSnapshot{
			StudentID:  result.StudentID,
			Features:   result.Features,
			Assessment: result.Assessment,
			ComputedAt: result.ComputedAt,
		}
		if cacheErr := h.cache.SetLatest(ctx, snapshot); cacheErr != nil {
			// Кеш - best effort: результат уже вычислен и возвращается.
			h.log.Warn("failed to cache pipeline snapshot",
				logger.StudentID(result.StudentID),
				logger.Err(cacheErr))
		}
	}

	if set.Dropped > 0 {
		h.log.Debug("normalizer dropped malformed records",
			logger.StudentID(result.StudentID),
			logger.Int("dropped", set.Dropped))
	}

	return result, nil
}
