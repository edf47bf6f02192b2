// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPLAIN STUDENT QUERY
// Объясняет уровень риска студента: его признаки сравниваются
// со средними по популяционной таблице (read-only датасет).
// ══════════════════════════════════════════════════════════════════════════════

// PopulationTable - чтение популяционной таблицы.
// Реализация - ленивый кеш в infrastructure/ml.
type PopulationTable interface {
	// Lookup возвращает строку студента; found=false, если студента нет.
	Lookup(ctx context.Context, studentID string) (risk.PopulationRow, bool, error)

	// Means возвращает средние значения признаков по всей популяции.
	Means(ctx context.Context) (features.Vector, error)
}

// ExplainStudentQuery содержит параметры запроса объяснения.
type ExplainStudentQuery struct {
	// StudentID - студент.
	StudentID string

	// Thresholds - пороги отклонения; нулевые заменяются умолчаниями.
	Thresholds risk.Thresholds
}

// Validate проверяет корректность запроса.
func (q *ExplainStudentQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("explain_student: student_id is required")
	}
	if q.Thresholds == (risk.Thresholds{}) {
		q.Thresholds = risk.DefaultThresholds()
	}
	return q.Thresholds.Validate()
}

// ExplainStudentHandler обрабатывает запрос объяснения.
type ExplainStudentHandler struct {
	population PopulationTable
	defaults   risk.Thresholds
}

// NewExplainStudentHandler создаёт обработчик. Нулевые defaults
// заменяются risk.DefaultThresholds.
func NewExplainStudentHandler(population PopulationTable, defaults risk.Thresholds) *ExplainStudentHandler {
	if defaults == (risk.Thresholds{}) {
		defaults = risk.DefaultThresholds()
	}
	return &ExplainStudentHandler{population: population, defaults: defaults}
}

// Handle строит объяснение уровня риска.
// Возвращает risk.ErrStudentNotFound, если студента нет в популяции -
// это явный "absent" результат, а не исключение.
func (h *ExplainStudentHandler) Handle(ctx context.Context, q ExplainStudentQuery) (*risk.Explanation, error) {
	if q.Thresholds == (risk.Thresholds{}) {
		q.Thresholds = h.defaults
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	row, found, err := h.population.Lookup(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, risk.ErrStudentNotFound
	}

	means, err := h.population.Means(ctx)
	if err != nil {
		return nil, err
	}

	explanation := risk.Explain(row, means, q.Thresholds)
	return &explanation, nil
}
