package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/MoeApps/AcademIQ/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LATEST RESULT QUERY
// Читает последний снимок конвейера для студента из кеша снимков.
// Снимок появляется после первого успешного ингеста и живёт до
// истечения TTL; это read-back конвейера, а не источник истины.
// ══════════════════════════════════════════════════════════════════════════════

// ErrResultNotFound - для студента нет сохранённого результата конвейера.
var ErrResultNotFound = errors.New("query: no pipeline result for student")

// LatestResultSource отдаёт последний снимок конвейера по студенту.
// Реализация - SnapshotCache в infrastructure/persistence/redis.
type LatestResultSource interface {
	GetLatest(ctx context.Context, studentID string) (command.StudentSnapshot, bool, error)
}

// GetLatestResultQuery содержит параметры запроса.
type GetLatestResultQuery struct {
	// StudentID - студент.
	StudentID string
}

// Validate проверяет корректность запроса.
func (q *GetLatestResultQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("get_latest_result: student_id is required")
	}
	return nil
}

// GetLatestResultHandler обрабатывает запрос.
type GetLatestResultHandler struct {
	source LatestResultSource
}

// NewGetLatestResultHandler создаёт обработчик.
func NewGetLatestResultHandler(source LatestResultSource) *GetLatestResultHandler {
	return &GetLatestResultHandler{source: source}
}

// Handle возвращает последний снимок конвейера для студента.
// Возвращает ErrResultNotFound, если студент ещё не ингестировался
// или снимок истёк.
func (h *GetLatestResultHandler) Handle(ctx context.Context, q GetLatestResultQuery) (*command.StudentSnapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	snapshot, found, err := h.source.GetLatest(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get_latest_result: read snapshot: %w", err)
	}
	if !found {
		return nil, ErrResultNotFound
	}

	return &snapshot, nil
}
