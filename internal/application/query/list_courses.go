package query

import (
	"context"

	"github.com/MoeApps/AcademIQ/internal/domain/academic"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST COURSES QUERY
// Отдаёт каталог курсов целиком. Параметров нет: каталог маленький
// и читается дашбордом одним запросом.
// ══════════════════════════════════════════════════════════════════════════════

// CourseItem - курс в ответе каталога.
type CourseItem struct {
	CourseID string `json:"course_id"`
	Name     string `json:"name"`
}

// ListCoursesHandler обрабатывает запрос каталога.
type ListCoursesHandler struct {
	journal academic.Repository
}

// NewListCoursesHandler создаёт обработчик.
func NewListCoursesHandler(journal academic.Repository) *ListCoursesHandler {
	return &ListCoursesHandler{journal: journal}
}

// Handle возвращает все курсы учебного плана.
func (h *ListCoursesHandler) Handle(ctx context.Context) ([]CourseItem, error) {
	courses, err := h.journal.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]CourseItem, 0, len(courses))
	for _, c := range courses {
		items = append(items, CourseItem{CourseID: c.ID, Name: c.Name})
	}
	return items, nil
}
