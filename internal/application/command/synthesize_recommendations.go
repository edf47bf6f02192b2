package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/MoeApps/AcademIQ/internal/domain/academic"
	"github.com/MoeApps/AcademIQ/internal/domain/gap"
	"github.com/MoeApps/AcademIQ/internal/domain/recommendation"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
	"github.com/MoeApps/AcademIQ/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNTHESIZE RECOMMENDATIONS COMMAND
// Собирает советующие записи студента из пробелов в знаниях, слабых
// курсов и уровня риска, и сохраняет весь батч одной транзакцией.
// Каждый вызов добавляет свежие строки (append-only), прежние записи
// не обновляются - они вытесняются более новыми при чтении.
// ══════════════════════════════════════════════════════════════════════════════

// PopulationLookup - чтение строки студента из популяционной таблицы.
// Реализация - кеш в infrastructure/ml.
type PopulationLookup interface {
	Lookup(ctx context.Context, studentID string) (risk.PopulationRow, bool, error)
}

// SynthesizeRecommendationsCommand содержит параметры синтеза.
type SynthesizeRecommendationsCommand struct {
	// StudentID - студент, для которого синтезируются рекомендации.
	StudentID string
}

// Validate проверяет корректность команды.
func (c SynthesizeRecommendationsCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("synthesize_recommendations: student_id is required")
	}
	return nil
}

// SynthesizeRecommendationsHandler обрабатывает команду синтеза.
type SynthesizeRecommendationsHandler struct {
	journal     academic.Repository
	population  PopulationLookup
	recs        recommendation.Repository
	synthesizer *recommendation.Synthesizer
	prereqs     gap.Prerequisites
	bands       gap.GradeBands
	log         *logger.Logger
}

// NewSynthesizeRecommendationsHandler создаёт обработчик.
func NewSynthesizeRecommendationsHandler(
	journal academic.Repository,
	population PopulationLookup,
	recs recommendation.Repository,
	synthesizer *recommendation.Synthesizer,
	prereqs gap.Prerequisites,
	bands gap.GradeBands,
	log *logger.Logger,
) *SynthesizeRecommendationsHandler {
	if prereqs == nil {
		prereqs = gap.DefaultPrerequisites()
	}
	if (bands == gap.GradeBands{}) {
		bands = gap.DefaultGradeBands()
	}
	if log == nil {
		log = logger.Default()
	}
	return &SynthesizeRecommendationsHandler{
		journal:     journal,
		population:  population,
		recs:        recs,
		synthesizer: synthesizer,
		prereqs:     prereqs,
		bands:       bands,
		log:         log,
	}
}

// Handle синтезирует и сохраняет рекомендации студента.
//
// Возвращает academic.ErrStudentNotFound, если студента нет в журнале.
// Недоступность модели риска не блокирует синтез: рекомендации
// по пробелам и слабым курсам строятся без уровня риска.
func (h *SynthesizeRecommendationsHandler) Handle(ctx context.Context, cmd SynthesizeRecommendationsCommand) ([]*recommendation.Recommendation, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.journal.GetStudent(ctx, cmd.StudentID); err != nil {
		return nil, err
	}

	enrolled, err := h.journal.GetEnrolledCourseIDs(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("synthesize_recommendations: load enrollments: %w", err)
	}

	grades, err := h.journal.GetGrades(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("synthesize_recommendations: load grades: %w", err)
	}

	courseGrades, courseIDs := toCourseGrades(grades)
	names, err := h.journal.GetCourseNames(ctx, append(courseIDs, enrolled...))
	if err != nil {
		return nil, fmt.Errorf("synthesize_recommendations: load course names: %w", err)
	}
	for i := range courseGrades {
		if n, ok := names[courseGrades[i].CourseID]; ok {
			courseGrades[i].CourseName = n
		}
	}

	level := risk.LevelUnknown
	if h.population != nil {
		row, found, popErr := h.population.Lookup(ctx, cmd.StudentID)
		switch {
		case popErr != nil:
			// Популяционная таблица недоступна - синтез продолжается
			// без risk_intervention записи.
			h.log.Warn("population lookup failed during synthesis",
				logger.StudentID(cmd.StudentID),
				logger.Err(popErr))
		case found:
			level = row.Level
		}
	}

	gaps := gap.Detect(enrolled, courseGrades, h.prereqs, h.bands, names)
	weak := gap.WeakCourses(courseGrades, h.bands)

	batch, err := h.synthesizer.Synthesize(recommendation.Input{
		StudentID:   cmd.StudentID,
		Gaps:        gaps,
		WeakCourses: weak,
		Level:       level,
	})
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return batch, nil
	}

	// Один транзакционный коммит на весь вызов: или все записи, или ни одной.
	if err := h.recs.SaveBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("synthesize_recommendations: persist batch: %w", err)
	}

	h.log.Info("recommendations synthesized",
		logger.StudentID(cmd.StudentID),
		logger.Int("count", len(batch)),
		logger.Int("gaps", len(gaps)),
		logger.String("risk_level", string(level)))

	return batch, nil
}

// toCourseGrades переводит оценки журнала в доменный вид пакета gap.
func toCourseGrades(grades []academic.Grade) ([]gap.CourseGrade, []string) {
	courseGrades := make([]gap.CourseGrade, 0, len(grades))
	courseIDs := make([]string, 0, len(grades))
	for _, g := range grades {
		courseGrades = append(courseGrades, gap.CourseGrade{
			CourseID:   g.CourseID,
			FinalGrade: g.FinalGrade,
		})
		courseIDs = append(courseIDs, g.CourseID)
	}
	return courseGrades, courseIDs
}
