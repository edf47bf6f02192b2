package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/MoeApps/AcademIQ/internal/domain/academic"
	"github.com/MoeApps/AcademIQ/internal/domain/gap"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT PROFILE QUERY
// Профиль студента: сильные и слабые темы из журнала оценок плюс
// риск из популяционной таблицы. Используется дашбордом и синтезом
// рекомендаций.
// ══════════════════════════════════════════════════════════════════════════════

// TopicGrade - курс с оценкой в профиле студента.
type TopicGrade struct {
	CourseID   string  `json:"course_id"`
	CourseName string  `json:"name"`
	Grade      float64 `json:"grade"`
}

// StudentProfile - собранный профиль студента.
type StudentProfile struct {
	StudentID    string       `json:"student_id"`
	StrongTopics []TopicGrade `json:"strong_topics"`
	WeakTopics   []TopicGrade `json:"weak_topics"`
	RiskLevel    risk.Level   `json:"risk_level"`
	RiskCluster  int          `json:"risk_cluster"`
}

// GetStudentProfileQuery содержит параметры запроса профиля.
type GetStudentProfileQuery struct {
	// StudentID - студент.
	StudentID string

	// Bands - пороги слабых/сильных курсов; нулевые заменяются умолчаниями.
	Bands gap.GradeBands
}

// Validate проверяет корректность запроса.
func (q *GetStudentProfileQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("get_student_profile: student_id is required")
	}
	if (q.Bands == gap.GradeBands{}) {
		q.Bands = gap.DefaultGradeBands()
	}
	return q.Bands.Validate()
}

// GetStudentProfileHandler обрабатывает запрос профиля.
type GetStudentProfileHandler struct {
	journal    academic.Repository
	population PopulationTable
}

// NewGetStudentProfileHandler создаёт обработчик.
func NewGetStudentProfileHandler(journal academic.Repository, population PopulationTable) *GetStudentProfileHandler {
	return &GetStudentProfileHandler{journal: journal, population: population}
}

// Handle собирает профиль студента.
// Возвращает academic.ErrStudentNotFound, если студента нет в журнале.
// Отсутствие студента в популяционной таблице - не ошибка: профиль
// возвращается с риском UNKNOWN.
func (h *GetStudentProfileHandler) Handle(ctx context.Context, q GetStudentProfileQuery) (*StudentProfile, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.journal.GetStudent(ctx, q.StudentID); err != nil {
		return nil, err
	}

	grades, err := h.journal.GetGrades(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get_student_profile: load grades: %w", err)
	}

	courseIDs := make([]string, 0, len(grades))
	for _, g := range grades {
		courseIDs = append(courseIDs, g.CourseID)
	}
	names, err := h.journal.GetCourseNames(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("get_student_profile: load course names: %w", err)
	}

	courseGrades := make([]gap.CourseGrade, 0, len(grades))
	for _, g := range grades {
		courseGrades = append(courseGrades, gap.CourseGrade{
			CourseID:   g.CourseID,
			CourseName: names[g.CourseID],
			FinalGrade: g.FinalGrade,
		})
	}

	profile := &StudentProfile{
		StudentID:    q.StudentID,
		StrongTopics: toTopics(gap.StrongCourses(courseGrades, q.Bands)),
		WeakTopics:   toTopics(gap.WeakCourses(courseGrades, q.Bands)),
		RiskLevel:    risk.LevelUnknown,
	}

	if h.population != nil {
		row, found, popErr := h.population.Lookup(ctx, q.StudentID)
		if popErr == nil && found {
			profile.RiskLevel = row.Level
			profile.RiskCluster = row.Cluster
		}
	}

	return profile, nil
}

// toTopics переводит курсы в элементы профиля.
func toTopics(grades []gap.CourseGrade) []TopicGrade {
	topics := make([]TopicGrade, 0, len(grades))
	for _, g := range grades {
		grade := 0.0
		if g.FinalGrade != nil {
			grade = *g.FinalGrade
		}
		topics = append(topics, TopicGrade{
			CourseID:   g.CourseID,
			CourseName: g.DisplayName(),
			Grade:      grade,
		})
	}
	return topics
}
