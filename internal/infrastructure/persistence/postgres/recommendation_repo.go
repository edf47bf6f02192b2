// Package postgres implements PostgreSQL persistence layer for AcademIQ.
package postgres

import (
	"context"
	"fmt"

	"github.com/MoeApps/AcademIQ/internal/domain/recommendation"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMENDATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RecommendationRepository implements recommendation.Repository for PostgreSQL.
type RecommendationRepository struct {
	conn *Connection
}

// NewRecommendationRepository creates a new RecommendationRepository.
func NewRecommendationRepository(conn *Connection) *RecommendationRepository {
	return &RecommendationRepository{conn: conn}
}

// SaveBatch persists a whole batch in a single transaction.
// Either every record lands or none does. Inserts only, never updates:
// the table is an append-only history.
func (r *RecommendationRepository) SaveBatch(ctx context.Context, recs []*recommendation.Recommendation) error {
	if len(recs) == 0 {
		return recommendation.ErrEmptyBatch
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			INSERT INTO recommendations (id, student_id, course_id, rec_type, reason, content, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		for _, rec := range recs {
			_, err := tx.Exec(ctx, query,
				rec.ID,
				rec.StudentID,
				rec.CourseID,
				string(rec.Type),
				rec.Reason,
				rec.Content,
				rec.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert recommendation %s: %w", rec.ID, err)
			}
		}

		return nil
	})
}

// GetByStudent returns a student's recommendations, newest first.
// limit <= 0 means no limit.
func (r *RecommendationRepository) GetByStudent(ctx context.Context, studentID string, limit int) ([]*recommendation.Recommendation, error) {
	query := `
		SELECT id, student_id, course_id, rec_type, reason, content, created_at
		FROM recommendations
		WHERE student_id = $1
		ORDER BY created_at DESC, id
	`

	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.conn.Query(ctx, query+" LIMIT $2", studentID, limit)
	} else {
		rows, err = r.conn.Query(ctx, query, studentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	return r.scanRecommendations(rows)
}

// CountByStudent returns the number of stored recommendations for a student.
func (r *RecommendationRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM recommendations WHERE student_id = $1",
		studentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return count, nil
}

// scanRecommendations scans multiple recommendations from rows.
func (r *RecommendationRepository) scanRecommendations(rows pgx.Rows) ([]*recommendation.Recommendation, error) {
	var recs []*recommendation.Recommendation

	for rows.Next() {
		var rec recommendation.Recommendation
		var recType string

		err := rows.Scan(
			&rec.ID,
			&rec.StudentID,
			&rec.CourseID,
			&recType,
			&rec.Reason,
			&rec.Content,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}

		rec.Type = recommendation.Type(recType)
		recs = append(recs, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return recs, nil
}
