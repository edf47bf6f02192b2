package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeApps/AcademIQ/internal/application/command"
	"github.com/MoeApps/AcademIQ/internal/domain/features"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
)

// fakeLatestResultSource отдаёт снимки из памяти.
type fakeLatestResultSource struct {
	snapshots map[string]command.StudentSnapshot
	failWith  error
}

func (f *fakeLatestResultSource) GetLatest(_ context.Context, studentID string) (command.StudentSnapshot, bool, error) {
	if f.failWith != nil {
		return command.StudentSnapshot{}, false, f.failWith
	}
	snapshot, ok := f.snapshots[studentID]
	return snapshot, ok, nil
}

func TestGetLatestResult_RequiresStudentID(t *testing.T) {
	handler := NewGetLatestResultHandler(&fakeLatestResultSource{})

	_, err := handler.Handle(context.Background(), GetLatestResultQuery{})
	assert.Error(t, err)
}

func TestGetLatestResult_ReturnsSnapshot(t *testing.T) {
	assessment := risk.NewAssessment(1)
	source := &fakeLatestResultSource{snapshots: map[string]command.StudentSnapshot{
		"S001": {
			StudentID:  "S001",
			Features:   features.Vector{AvgQuizScore: 7.5},
			Assessment: &assessment,
			ComputedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		},
	}}
	handler := NewGetLatestResultHandler(source)

	result, err := handler.Handle(context.Background(), GetLatestResultQuery{StudentID: "S001"})
	require.NoError(t, err)

	assert.Equal(t, "S001", result.StudentID)
	assert.Equal(t, 7.5, result.Features.AvgQuizScore)
	require.NotNil(t, result.Assessment)
	assert.Equal(t, risk.LevelMedium, result.Assessment.Level)
}

func TestGetLatestResult_NotFound(t *testing.T) {
	handler := NewGetLatestResultHandler(&fakeLatestResultSource{})

	_, err := handler.Handle(context.Background(), GetLatestResultQuery{StudentID: "S999"})
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestGetLatestResult_SourceErrorPropagates(t *testing.T) {
	source := &fakeLatestResultSource{failWith: errors.New("redis down")}
	handler := NewGetLatestResultHandler(source)

	_, err := handler.Handle(context.Background(), GetLatestResultQuery{StudentID: "S001"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrResultNotFound)
}
