package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
)

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Below: 1.2, Above: 1.1}.Validate())
	assert.Error(t, Thresholds{Below: 0, Above: 1.1}.Validate())
	assert.Error(t, Thresholds{Below: 0.9, Above: 0}.Validate())
}

func TestExplain_BelowAndAboveAverage(t *testing.T) {
	row := PopulationRow{
		StudentID: "S001",
		Features: features.Vector{
			AvgQuizScore:        8.0,  // ниже mean*0.9 = 9.0
			LateSubmissionRatio: 0.9,  // выше mean*1.1 = 0.55
			ActiveDays:          10.0, // в пределах порогов
		},
		Cluster: 2,
		Level:   LevelHigh,
	}
	means := features.Vector{
		AvgQuizScore:        10.0,
		LateSubmissionRatio: 0.5,
		ActiveDays:          10.0,
	}

	explanation := Explain(row, means, DefaultThresholds())

	assert.Equal(t, "S001", explanation.StudentID)
	assert.Equal(t, LevelHigh, explanation.Level)
	assert.Equal(t, 2, explanation.Cluster)
	assert.Contains(t, explanation.Reasons, "Quiz score average: below average (8.0 vs 10.0)")
	assert.Contains(t, explanation.Reasons, "Late submission ratio: above average (0.9 vs 0.5)")
	for _, reason := range explanation.Reasons {
		assert.NotContains(t, reason, "Active days")
	}
	assert.Equal(t, RecommendationForCluster(2), explanation.Summary)
}

func TestExplain_WithinThresholdsSilent(t *testing.T) {
	// 9.5 при среднем 10 лежит внутри [9.0, 11.0] - причины нет.
	row := PopulationRow{
		StudentID: "S002",
		Features:  features.Vector{AvgQuizScore: 9.5},
		Cluster:   0,
		Level:     LevelLow,
	}
	means := features.Vector{AvgQuizScore: 10.0}

	explanation := Explain(row, means, DefaultThresholds())

	for _, reason := range explanation.Reasons {
		assert.NotContains(t, reason, "Quiz score average")
	}
}

func TestExplain_NoDeviationsFallsBackToSummary(t *testing.T) {
	v := features.Vector{
		TotalTimeSpent:      100,
		ActiveDays:          5,
		AccessFrequency:     3,
		AvgQuizScore:        8,
		QuizScoreStd:        1,
		AvgAssignmentScore:  0.8,
		LateSubmissionRatio: 0.1,
		AvgFinalGrade:       0.85,
	}
	row := PopulationRow{StudentID: "S003", Features: v, Cluster: 0, Level: LevelLow}

	explanation := Explain(row, v, DefaultThresholds())

	require.Len(t, explanation.Reasons, 1)
	assert.Equal(t, explanation.Summary, explanation.Reasons[0])
	assert.Equal(t, RecommendationForCluster(0), explanation.Summary)
}

func TestExplain_UnknownClusterNeverPanics(t *testing.T) {
	row := PopulationRow{StudentID: "S004", Cluster: 9}

	explanation := Explain(row, features.Vector{}, DefaultThresholds())

	assert.Equal(t, LevelUnknown, explanation.Level)
	assert.Equal(t, "Unknown risk level", explanation.Summary)
}

func TestFeatureLabel_UnknownNamePassesThrough(t *testing.T) {
	assert.Equal(t, "Quiz score average", FeatureLabel(features.FeatureAvgQuizScore))
	assert.Equal(t, "mystery_feature", FeatureLabel("mystery_feature"))
}
