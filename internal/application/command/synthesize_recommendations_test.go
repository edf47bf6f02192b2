package command

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeApps/AcademIQ/internal/domain/academic"
	"github.com/MoeApps/AcademIQ/internal/domain/gap"
	"github.com/MoeApps/AcademIQ/internal/domain/recommendation"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
)

// ──────────────────────────────────────────────────────────────────────────────
// Фейки слоя персистентности
// ──────────────────────────────────────────────────────────────────────────────

type fakeJournal struct {
	students map[string]*academic.Student
	enrolled map[string][]string
	grades   map[string][]academic.Grade
	names    map[string]string
}

func (f *fakeJournal) GetStudent(_ context.Context, studentID string) (*academic.Student, error) {
	s, ok := f.students[studentID]
	if !ok {
		return nil, academic.ErrStudentNotFound
	}
	return s, nil
}

func (f *fakeJournal) GetEnrolledCourseIDs(_ context.Context, studentID string) ([]string, error) {
	return f.enrolled[studentID], nil
}

func (f *fakeJournal) GetGrades(_ context.Context, studentID string) ([]academic.Grade, error) {
	return f.grades[studentID], nil
}

func (f *fakeJournal) GetCourseNames(_ context.Context, courseIDs []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range courseIDs {
		if name, ok := f.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (f *fakeJournal) ListCourses(_ context.Context) ([]academic.Course, error) {
	courses := make([]academic.Course, 0, len(f.names))
	for id, name := range f.names {
		courses = append(courses, academic.Course{ID: id, Name: name})
	}
	return courses, nil
}

type fakePopulation struct {
	rows     map[string]risk.PopulationRow
	failWith error
}

func (f *fakePopulation) Lookup(_ context.Context, studentID string) (risk.PopulationRow, bool, error) {
	if f.failWith != nil {
		return risk.PopulationRow{}, false, f.failWith
	}
	row, ok := f.rows[studentID]
	return row, ok, nil
}

type fakeRecRepo struct {
	saveCalls int
	saved     []*recommendation.Recommendation
}

func (f *fakeRecRepo) SaveBatch(_ context.Context, recs []*recommendation.Recommendation) error {
	f.saveCalls++
	f.saved = append(f.saved, recs...)
	return nil
}

func (f *fakeRecRepo) GetByStudent(_ context.Context, studentID string, limit int) ([]*recommendation.Recommendation, error) {
	out := make([]*recommendation.Recommendation, 0)
	for _, r := range f.saved {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRecRepo) CountByStudent(_ context.Context, studentID string) (int, error) {
	n := 0
	for _, r := range f.saved {
		if r.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func gradePtr(v float64) *float64 { return &v }

// newJournal собирает журнал: студент S001 записан на C03, слаб в C01.
func newJournal() *fakeJournal {
	return &fakeJournal{
		students: map[string]*academic.Student{
			"S001": {ID: "S001", FullName: "Aida Nurlanovna"},
		},
		enrolled: map[string][]string{
			"S001": {"C03"},
		},
		grades: map[string][]academic.Grade{
			"S001": {
				{StudentID: "S001", CourseID: "C01", FinalGrade: gradePtr(3.5)},
				{StudentID: "S001", CourseID: "C02", FinalGrade: gradePtr(8.0)},
			},
		},
		names: map[string]string{
			"C01": "Intro to Programming",
			"C02": "Discrete Math",
			"C03": "Algorithms",
		},
	}
}

func newSynthHandler(journal academic.Repository, population PopulationLookup, recs recommendation.Repository) *SynthesizeRecommendationsHandler {
	counter := 0
	synth := recommendation.NewSynthesizer(
		func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
		func() string { counter++; return fmt.Sprintf("rec-%d", counter) },
	)
	return NewSynthesizeRecommendationsHandler(journal, population, recs, synth, nil, gap.GradeBands{}, nil)
}

// ──────────────────────────────────────────────────────────────────────────────
// Тесты
// ──────────────────────────────────────────────────────────────────────────────

func TestSynthesizeRecommendations_RequiresStudentID(t *testing.T) {
	handler := newSynthHandler(newJournal(), nil, &fakeRecRepo{})

	_, err := handler.Handle(context.Background(), SynthesizeRecommendationsCommand{})
	assert.Error(t, err)
}

func TestSynthesizeRecommendations_StudentNotFound(t *testing.T) {
	handler := newSynthHandler(newJournal(), nil, &fakeRecRepo{})

	_, err := handler.Handle(context.Background(), SynthesizeRecommendationsCommand{StudentID: "S999"})
	assert.ErrorIs(t, err, academic.ErrStudentNotFound)
}

func TestSynthesizeRecommendations_PersistsWholeBatchOnce(t *testing.T) {
	recs := &fakeRecRepo{}
	handler := newSynthHandler(newJournal(), nil, recs)

	batch, err := handler.Handle(context.Background(), SynthesizeRecommendationsCommand{StudentID: "S001"})
	require.NoError(t, err)

	// Слабый C01 - пререквизит C03: prerequisite_review + опора на слабый курс.
	require.NotEmpty(t, batch)
	assert.Equal(t, 1, recs.saveCalls)
	assert.Equal(t, batch, recs.saved)

	types := make(map[recommendation.Type]int)
	for _, r := range batch {
		assert.Equal(t, "S001", r.StudentID)
		types[r.Type]++
	}
	assert.Equal(t, 1, types[recommendation.TypePrerequisiteReview])
	assert.Zero(t, types[recommendation.TypeRiskIntervention])
}

func TestSynthesizeRecommendations_HighRiskAddsIntervention(t *testing.T) {
	recs := &fakeRecRepo{}
	population := &fakePopulation{rows: map[string]risk.PopulationRow{
		"S001": {StudentID: "S001", Cluster: 2, Level: risk.LevelHigh},
	}}
	handler := newSynthHandler(newJournal(), population, recs)

	batch, err := handler.Handle(context.Background(), SynthesizeRecommendationsCommand{StudentID: "S001"})
	require.NoError(t, err)

	interventions := 0
	for _, r := range batch {
		if r.Type == recommendation.TypeRiskIntervention {
			interventions++
			assert.Nil(t, r.CourseID)
		}
	}
	assert.Equal(t, 1, interventions)
}

func TestSynthesizeRecommendations_PopulationFailureDegradesToUnknown(t *testing.T) {
	recs := &fakeRecRepo{}
	population := &fakePopulation{failWith: errors.New("population table unavailable")}
	handler := newSynthHandler(newJournal(), population, recs)

	batch, err := handler.Handle(context.Background(), SynthesizeRecommendationsCommand{StudentID: "S001"})
	require.NoError(t, err)

	// Без уровня риска intervention не создаётся, остальной синтез не страдает.
	for _, r := range batch {
		assert.NotEqual(t, recommendation.TypeRiskIntervention, r.Type)
	}
	assert.Equal(t, 1, recs.saveCalls)
}

func TestSynthesizeRecommendations_RerunAppendsNewBatch(t *testing.T) {
	recs := &fakeRecRepo{}
	handler := newSynthHandler(newJournal(), nil, recs)

	first, err := handler.Handle(context.Background(), SynthesizeRecommendationsCommand{StudentID: "S001"})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := handler.Handle(context.Background(), SynthesizeRecommendationsCommand{StudentID: "S001"})
	require.NoError(t, err)
	require.Len(t, second, len(first))

	// История append-only: повторный синтез добавляет новые строки,
	// предыдущая партия остаётся нетронутой.
	assert.Equal(t, 2, recs.saveCalls)

	count, err := recs.CountByStudent(context.Background(), "S001")
	require.NoError(t, err)
	assert.Equal(t, 2*len(first), count)

	ids := make(map[string]struct{})
	for _, r := range recs.saved {
		ids[r.ID] = struct{}{}
	}
	assert.Len(t, ids, len(first)+len(second))
}

func TestSynthesizeRecommendations_NoSignalsNoPersist(t *testing.T) {
	journal := newJournal()
	journal.grades["S001"] = []academic.Grade{
		{StudentID: "S001", CourseID: "C01", FinalGrade: gradePtr(9.0)},
	}
	recs := &fakeRecRepo{}
	handler := newSynthHandler(journal, nil, recs)

	batch, err := handler.Handle(context.Background(), SynthesizeRecommendationsCommand{StudentID: "S001"})
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Zero(t, recs.saveCalls)
}
