package academic

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт чтения учебного журнала. Реализация находится
// в infrastructure/persistence/postgres. Конвейеру рисков нужно
// только чтение: журнал ведёт внешняя система.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции чтения учебного журнала.
type Repository interface {
	// GetStudent возвращает студента по идентификатору.
	// Возвращает ErrStudentNotFound, если студента нет.
	GetStudent(ctx context.Context, studentID string) (*Student, error)

	// GetEnrolledCourseIDs возвращает курсы, на которые записан студент.
	GetEnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error)

	// GetGrades возвращает итоговые оценки студента по всем курсам.
	GetGrades(ctx context.Context, studentID string) ([]Grade, error)

	// GetCourseNames возвращает названия курсов по идентификаторам.
	// Неизвестные идентификаторы в результате отсутствуют.
	GetCourseNames(ctx context.Context, courseIDs []string) (map[string]string, error)

	// ListCourses возвращает все курсы учебного плана.
	ListCourses(ctx context.Context) ([]Course, error)
}
