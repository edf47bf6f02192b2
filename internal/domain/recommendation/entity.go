// Package recommendation содержит советующие записи для студентов
// и синтезатор, который собирает их из трёх независимых источников:
// пробелов в знаниях, слабых курсов и уровня риска.
// Это чистый доменный слой без внешних зависимостей.
package recommendation

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidStudentID - пустой идентификатор студента.
	ErrInvalidStudentID = errors.New("recommendation: invalid student id")

	// ErrEmptyBatch - попытка сохранить пустой батч.
	ErrEmptyBatch = errors.New("recommendation: empty batch")
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет источник рекомендации.
type Type string

const (
	// TypePrerequisiteReview - повторить пререквизит перед курсом.
	TypePrerequisiteReview Type = "prerequisite_review"

	// TypeContentBased - практиковаться в слабом курсе.
	TypeContentBased Type = "content_based"

	// TypeRiskIntervention - общая рекомендация для высокого риска.
	TypeRiskIntervention Type = "risk_intervention"
)

// IsValid проверяет, что тип известен.
func (t Type) IsValid() bool {
	switch t {
	case TypePrerequisiteReview, TypeContentBased, TypeRiskIntervention:
		return true
	default:
		return false
	}
}

// Recommendation - сохранённая советующая запись.
// Append-only: после создания не мутирует, только вытесняется
// более новыми записями для того же студента.
type Recommendation struct {
	// ID - уникальный идентификатор записи (UUID).
	ID string

	// StudentID - студент, которому адресована рекомендация.
	StudentID string

	// CourseID - курс, к которому относится рекомендация.
	// nil для рекомендаций без привязки к курсу (risk_intervention).
	CourseID *string

	// Type - источник рекомендации.
	Type Type

	// Reason - причина рекомендации.
	Reason string

	// Content - текст рекомендации для студента.
	Content string

	// CreatedAt - момент создания записи.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// Реализация находится в infrastructure/persistence/postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт хранилища рекомендаций.
type Repository interface {
	// SaveBatch сохраняет весь батч одной транзакцией: или все записи,
	// или ни одной. Только добавление, никаких upsert.
	SaveBatch(ctx context.Context, recs []*Recommendation) error

	// GetByStudent возвращает рекомендации студента, самые новые первыми.
	// limit <= 0 означает "без ограничения".
	GetByStudent(ctx context.Context, studentID string, limit int) ([]*Recommendation, error)

	// CountByStudent возвращает количество сохранённых рекомендаций студента.
	CountByStudent(ctx context.Context, studentID string) (int, error)
}
