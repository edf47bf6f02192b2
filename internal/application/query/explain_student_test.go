package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
)

// fakePopulationTable - популяционная таблица в памяти.
type fakePopulationTable struct {
	rows     map[string]risk.PopulationRow
	means    features.Vector
	failWith error
}

func (f *fakePopulationTable) Lookup(_ context.Context, studentID string) (risk.PopulationRow, bool, error) {
	if f.failWith != nil {
		return risk.PopulationRow{}, false, f.failWith
	}
	row, ok := f.rows[studentID]
	return row, ok, nil
}

func (f *fakePopulationTable) Means(_ context.Context) (features.Vector, error) {
	if f.failWith != nil {
		return features.Vector{}, f.failWith
	}
	return f.means, nil
}

func populationWithOneStudent() *fakePopulationTable {
	return &fakePopulationTable{
		rows: map[string]risk.PopulationRow{
			"S001": {
				StudentID: "S001",
				Features: features.Vector{
					TotalTimeSpent:      100,
					ActiveDays:          10,
					AccessFrequency:     2,
					AvgQuizScore:        8,
					QuizScoreStd:        1,
					AvgAssignmentScore:  0.8,
					LateSubmissionRatio: 0.1,
					AvgFinalGrade:       0.8,
				},
				Cluster: 1,
				Level:   risk.LevelMedium,
			},
		},
		means: features.Vector{
			TotalTimeSpent:      100,
			ActiveDays:          10,
			AccessFrequency:     2,
			AvgQuizScore:        10,
			QuizScoreStd:        1,
			AvgAssignmentScore:  0.8,
			LateSubmissionRatio: 0.1,
			AvgFinalGrade:       0.8,
		},
	}
}

func TestExplainStudent_RequiresStudentID(t *testing.T) {
	handler := NewExplainStudentHandler(populationWithOneStudent(), risk.Thresholds{})

	_, err := handler.Handle(context.Background(), ExplainStudentQuery{})
	assert.Error(t, err)
}

func TestExplainStudent_BuildsExplanation(t *testing.T) {
	handler := NewExplainStudentHandler(populationWithOneStudent(), risk.Thresholds{})

	explanation, err := handler.Handle(context.Background(), ExplainStudentQuery{StudentID: "S001"})
	require.NoError(t, err)

	assert.Equal(t, "S001", explanation.StudentID)
	assert.Equal(t, risk.LevelMedium, explanation.Level)
	assert.Equal(t, 1, explanation.Cluster)
	assert.Contains(t, explanation.Reasons, "Quiz score average: below average (8.0 vs 10.0)")
	assert.Equal(t, risk.RecommendationForCluster(1), explanation.Summary)
}

func TestExplainStudent_NotInPopulation(t *testing.T) {
	handler := NewExplainStudentHandler(populationWithOneStudent(), risk.Thresholds{})

	_, err := handler.Handle(context.Background(), ExplainStudentQuery{StudentID: "S999"})
	assert.ErrorIs(t, err, risk.ErrStudentNotFound)
}

func TestExplainStudent_PopulationErrorPropagates(t *testing.T) {
	popErr := errors.New("population table unavailable")
	handler := NewExplainStudentHandler(&fakePopulationTable{failWith: popErr}, risk.Thresholds{})

	_, err := handler.Handle(context.Background(), ExplainStudentQuery{StudentID: "S001"})
	assert.ErrorIs(t, err, popErr)
}

func TestExplainStudent_ConfiguredDefaultsApply(t *testing.T) {
	// Сверхширокие пороги: отклонение квиза 8 против 10 молчит,
	// объяснение деградирует до заготовленного резюме.
	handler := NewExplainStudentHandler(populationWithOneStudent(), risk.Thresholds{Below: 0.5, Above: 2.0})

	explanation, err := handler.Handle(context.Background(), ExplainStudentQuery{StudentID: "S001"})
	require.NoError(t, err)
	assert.Equal(t, []string{explanation.Summary}, explanation.Reasons)
}

func TestExplainStudent_ExplicitThresholdsOverrideDefaults(t *testing.T) {
	handler := NewExplainStudentHandler(populationWithOneStudent(), risk.Thresholds{Below: 0.5, Above: 2.0})

	explanation, err := handler.Handle(context.Background(), ExplainStudentQuery{
		StudentID:  "S001",
		Thresholds: risk.Thresholds{Below: 0.9, Above: 1.1},
	})
	require.NoError(t, err)
	assert.Contains(t, explanation.Reasons, "Quiz score average: below average (8.0 vs 10.0)")
}
