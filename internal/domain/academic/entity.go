// Package academic содержит справочную модель учебного журнала:
// студенты, курсы, записи на курсы и итоговые оценки. Конвейер рисков
// читает эти данные для профилей и обнаружения пробелов в знаниях.
// Это чистый доменный слой без внешних зависимостей.
package academic

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrStudentNotFound - студент не найден в журнале.
	ErrStudentNotFound = errors.New("academic: student not found")

	// ErrCourseNotFound - курс не найден в журнале.
	ErrCourseNotFound = errors.New("academic: course not found")

	// ErrInvalidStudentID - пустой идентификатор студента.
	ErrInvalidStudentID = errors.New("academic: invalid student id")
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Student - студент в учебном журнале.
type Student struct {
	// ID - идентификатор студента (например, "S001").
	ID string

	// FullName - полное имя.
	FullName string

	// Cohort - поток (например, "2024-spring").
	Cohort string

	// EnrolledAt - дата зачисления.
	EnrolledAt time.Time
}

// Course - курс учебного плана.
type Course struct {
	// ID - идентификатор курса (например, "C03").
	ID string

	// Name - название курса.
	Name string
}

// Enrollment - запись студента на курс.
type Enrollment struct {
	StudentID  string
	CourseID   string
	EnrolledAt time.Time
}

// Grade - итоговая оценка студента за курс (шкала 0-10).
type Grade struct {
	StudentID string
	CourseID  string

	// FinalGrade - итоговая оценка; nil, если курс не завершён.
	FinalGrade *float64

	GradedAt time.Time
}
