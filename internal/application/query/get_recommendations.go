package query

import (
	"context"
	"errors"

	"github.com/MoeApps/AcademIQ/internal/domain/recommendation"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RECOMMENDATIONS QUERY
// Читает сохранённые рекомендации студента, самые новые первыми.
// ══════════════════════════════════════════════════════════════════════════════

// GetRecommendationsQuery содержит параметры запроса.
type GetRecommendationsQuery struct {
	// StudentID - студент.
	StudentID string

	// Limit - максимум записей (по умолчанию 50).
	Limit int
}

// Validate проверяет корректность запроса.
func (q *GetRecommendationsQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("get_recommendations: student_id is required")
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	return nil
}

// GetRecommendationsHandler обрабатывает запрос.
type GetRecommendationsHandler struct {
	recs recommendation.Repository
}

// NewGetRecommendationsHandler создаёт обработчик.
func NewGetRecommendationsHandler(recs recommendation.Repository) *GetRecommendationsHandler {
	return &GetRecommendationsHandler{recs: recs}
}

// Handle возвращает сохранённые рекомендации студента.
func (h *GetRecommendationsHandler) Handle(ctx context.Context, q GetRecommendationsQuery) ([]*recommendation.Recommendation, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return h.recs.GetByStudent(ctx, q.StudentID, q.Limit)
}
