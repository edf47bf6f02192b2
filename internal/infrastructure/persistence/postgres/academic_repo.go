// Package postgres implements PostgreSQL persistence layer for AcademIQ.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MoeApps/AcademIQ/internal/domain/academic"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AcademicRepository implements academic.Repository for PostgreSQL.
// The catalog is read-only from the pipeline's point of view; rows are
// loaded by an external sync, the API only queries them.
type AcademicRepository struct {
	conn *Connection
}

// NewAcademicRepository creates a new AcademicRepository.
func NewAcademicRepository(conn *Connection) *AcademicRepository {
	return &AcademicRepository{conn: conn}
}

// GetStudent returns a student by LMS identifier.
func (r *AcademicRepository) GetStudent(ctx context.Context, studentID string) (*academic.Student, error) {
	query := `
		SELECT id, display_name, cohort, created_at
		FROM students
		WHERE id = $1
	`

	var s academic.Student
	var createdAt time.Time
	err := r.conn.QueryRow(ctx, query, studentID).Scan(
		&s.ID,
		&s.FullName,
		&s.Cohort,
		&createdAt,
	)

	if IsNoRows(err) {
		return nil, academic.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	s.EnrolledAt = createdAt
	return &s, nil
}

// GetEnrolledCourseIDs returns the courses a student is enrolled in.
func (r *AcademicRepository) GetEnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	query := `
		SELECT course_id
		FROM enrollments
		WHERE student_id = $1
		ORDER BY course_id
	`

	rows, err := r.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var courseIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		courseIDs = append(courseIDs, id)
	}

	return courseIDs, rows.Err()
}

// GetGrades returns all final grades recorded for a student.
func (r *AcademicRepository) GetGrades(ctx context.Context, studentID string) ([]academic.Grade, error) {
	query := `
		SELECT student_id, course_id, final_grade, graded_at
		FROM grades
		WHERE student_id = $1
		ORDER BY course_id
	`

	rows, err := r.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grades: %w", err)
	}
	defer rows.Close()

	var grades []academic.Grade
	for rows.Next() {
		var g academic.Grade
		var gradedAt *time.Time

		if err := rows.Scan(&g.StudentID, &g.CourseID, &g.FinalGrade, &gradedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}

		if gradedAt != nil {
			g.GradedAt = *gradedAt
		}
		grades = append(grades, g)
	}

	return grades, rows.Err()
}

// GetCourseNames returns display names for the given course IDs.
// Unknown IDs are simply absent from the result.
func (r *AcademicRepository) GetCourseNames(ctx context.Context, courseIDs []string) (map[string]string, error) {
	if len(courseIDs) == 0 {
		return map[string]string{}, nil
	}

	placeholders := make([]string, len(courseIDs))
	args := make([]interface{}, len(courseIDs))
	for i, id := range courseIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, name
		FROM courses
		WHERE id IN (%s)
	`, strings.Join(placeholders, ", "))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query course names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string, len(courseIDs))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		names[id] = name
	}

	return names, rows.Err()
}

// ListCourses returns the full course catalog.
func (r *AcademicRepository) ListCourses(ctx context.Context) ([]academic.Course, error) {
	query := `
		SELECT id, name
		FROM courses
		ORDER BY id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []academic.Course
	for rows.Next() {
		var c academic.Course
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}

	return courses, rows.Err()
}
