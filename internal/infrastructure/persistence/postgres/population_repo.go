// Package postgres implements PostgreSQL persistence layer for AcademIQ.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// POPULATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// populationColumns is the column list shared by all population queries.
// Feature columns follow the canonical feature order.
const populationColumns = `
	student_id,
	total_time_spent, active_days, access_frequency,
	avg_quiz_score, quiz_score_std,
	avg_assignment_score, late_submission_ratio, avg_final_grade,
	risk_cluster, risk_level, generic_recommendation
`

// PopulationRepository stores the classified feature population in the
// risk_profiles table. One row per student, upserted on rescoring.
type PopulationRepository struct {
	conn *Connection
}

// NewPopulationRepository creates a new PopulationRepository.
func NewPopulationRepository(conn *Connection) *PopulationRepository {
	return &PopulationRepository{conn: conn}
}

// Upsert inserts or replaces a student's population row.
func (r *PopulationRepository) Upsert(ctx context.Context, row risk.PopulationRow) error {
	query := `
		INSERT INTO risk_profiles (
			student_id,
			total_time_spent, active_days, access_frequency,
			avg_quiz_score, quiz_score_std,
			avg_assignment_score, late_submission_ratio, avg_final_grade,
			risk_cluster, risk_level, generic_recommendation, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT(student_id) DO UPDATE SET
			total_time_spent = EXCLUDED.total_time_spent,
			active_days = EXCLUDED.active_days,
			access_frequency = EXCLUDED.access_frequency,
			avg_quiz_score = EXCLUDED.avg_quiz_score,
			quiz_score_std = EXCLUDED.quiz_score_std,
			avg_assignment_score = EXCLUDED.avg_assignment_score,
			late_submission_ratio = EXCLUDED.late_submission_ratio,
			avg_final_grade = EXCLUDED.avg_final_grade,
			risk_cluster = EXCLUDED.risk_cluster,
			risk_level = EXCLUDED.risk_level,
			generic_recommendation = EXCLUDED.generic_recommendation,
			computed_at = EXCLUDED.computed_at
	`

	f := row.Features
	_, err := r.conn.Exec(ctx, query,
		row.StudentID,
		f.TotalTimeSpent,
		f.ActiveDays,
		f.AccessFrequency,
		f.AvgQuizScore,
		f.QuizScoreStd,
		f.AvgAssignmentScore,
		f.LateSubmissionRatio,
		f.AvgFinalGrade,
		row.Cluster,
		string(row.Level),
		row.Recommendation,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert population row: %w", err)
	}

	return nil
}

// UpsertBatch replaces multiple population rows in a single transaction.
// The trainer uses it to publish the whole reclassified population at once.
func (r *PopulationRepository) UpsertBatch(ctx context.Context, rows []risk.PopulationRow) error {
	if len(rows) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			INSERT INTO risk_profiles (
				student_id,
				total_time_spent, active_days, access_frequency,
				avg_quiz_score, quiz_score_std,
				avg_assignment_score, late_submission_ratio, avg_final_grade,
				risk_cluster, risk_level, generic_recommendation, computed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT(student_id) DO UPDATE SET
				total_time_spent = EXCLUDED.total_time_spent,
				active_days = EXCLUDED.active_days,
				access_frequency = EXCLUDED.access_frequency,
				avg_quiz_score = EXCLUDED.avg_quiz_score,
				quiz_score_std = EXCLUDED.quiz_score_std,
				avg_assignment_score = EXCLUDED.avg_assignment_score,
				late_submission_ratio = EXCLUDED.late_submission_ratio,
				avg_final_grade = EXCLUDED.avg_final_grade,
				risk_cluster = EXCLUDED.risk_cluster,
				risk_level = EXCLUDED.risk_level,
				generic_recommendation = EXCLUDED.generic_recommendation,
				computed_at = EXCLUDED.computed_at
		`

		now := time.Now().UTC()
		for _, row := range rows {
			f := row.Features
			_, err := tx.Exec(ctx, query,
				row.StudentID,
				f.TotalTimeSpent,
				f.ActiveDays,
				f.AccessFrequency,
				f.AvgQuizScore,
				f.QuizScoreStd,
				f.AvgAssignmentScore,
				f.LateSubmissionRatio,
				f.AvgFinalGrade,
				row.Cluster,
				string(row.Level),
				row.Recommendation,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert population row %s: %w", row.StudentID, err)
			}
		}

		return nil
	})
}

// Get returns a single student's population row.
// found is false when the student has never been classified.
func (r *PopulationRepository) Get(ctx context.Context, studentID string) (risk.PopulationRow, bool, error) {
	query := `SELECT ` + populationColumns + ` FROM risk_profiles WHERE student_id = $1`

	row, err := r.scanRow(r.conn.QueryRow(ctx, query, studentID))
	if IsNoRows(err) {
		return risk.PopulationRow{}, false, nil
	}
	if err != nil {
		return risk.PopulationRow{}, false, err
	}

	return row, true, nil
}

// GetAll returns every classified population row.
func (r *PopulationRepository) GetAll(ctx context.Context) ([]risk.PopulationRow, error) {
	query := `SELECT ` + populationColumns + ` FROM risk_profiles ORDER BY student_id`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query population: %w", err)
	}
	defer rows.Close()

	var result []risk.PopulationRow
	for rows.Next() {
		row, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// Count returns the number of classified students.
func (r *PopulationRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM risk_profiles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count population: %w", err)
	}
	return count, nil
}

// scanRow scans a population row from a pgx row.
func (r *PopulationRepository) scanRow(row pgx.Row) (risk.PopulationRow, error) {
	var p risk.PopulationRow
	var f features.Vector
	var level string

	err := row.Scan(
		&p.StudentID,
		&f.TotalTimeSpent,
		&f.ActiveDays,
		&f.AccessFrequency,
		&f.AvgQuizScore,
		&f.QuizScoreStd,
		&f.AvgAssignmentScore,
		&f.LateSubmissionRatio,
		&f.AvgFinalGrade,
		&p.Cluster,
		&level,
		&p.Recommendation,
	)
	if err != nil {
		if IsNoRows(err) {
			return risk.PopulationRow{}, err
		}
		return risk.PopulationRow{}, fmt.Errorf("failed to scan population row: %w", err)
	}

	p.Features = f
	p.Level = risk.ParseLevel(level)

	return p, nil
}
