package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeApps/AcademIQ/internal/domain/event"
)

func ptr[T any](v T) *T { return &v }

func TestAggregate_EmptySetIsZeroNotNaN(t *testing.T) {
	v := Aggregate(event.Set{}, time.Now())

	for i, val := range v.Values() {
		assert.False(t, math.IsNaN(val), "feature %s is NaN", Order()[i])
		assert.Equal(t, 0.0, val, "feature %s", Order()[i])
	}
}

func TestAggregate_Scenario(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	day1 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC).UnixMilli()
	day1Later := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC).UnixMilli()
	day2 := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC).UnixMilli()
	pastDue := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	futureDue := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	set := event.Set{
		StudentID: "S001",
		Sessions: []event.StudySession{
			{StartMillis: day1, DurationMillis: 60_000},
			{StartMillis: day1Later, DurationMillis: 30_000},
			{StartMillis: day2, DurationMillis: 10_000},
		},
		Courses: []event.CourseActivity{
			{
				CourseID: "C01",
				Visits:   4,
				Quizzes: []event.QuizAttempt{
					{Score: ptr(8.0)},
					{Score: ptr(6.0)},
					{}, // попытка без балла исключается из среднего
				},
				Assignments: []event.AssignmentSubmission{
					{Submitted: true, DueDate: &pastDue, GradeRatio: ptr(0.8)},
					{Submitted: true, DueDate: &futureDue},
				},
				FinalGradeRatio: ptr(0.85),
			},
			{
				CourseID:        "C02",
				Visits:          2,
				FinalGradeRatio: ptr(0.65),
			},
		},
	}

	v := Aggregate(set, asOf)

	assert.Equal(t, 100_000.0, v.TotalTimeSpent)
	assert.Equal(t, 2.0, v.ActiveDays)          // две уникальные даты
	assert.Equal(t, 3.0, v.AccessFrequency)     // (4+2)/2 курса
	assert.Equal(t, 7.0, v.AvgQuizScore)        // (8+6)/2
	assert.InDelta(t, 1.0, v.QuizScoreStd, 1e-9) // популяционное std {8,6}
	assert.InDelta(t, 0.8, v.AvgAssignmentScore, 1e-9)
	assert.InDelta(t, 0.5, v.LateSubmissionRatio, 1e-9) // 1 из 2 сдач просрочена
	assert.InDelta(t, 0.75, v.AvgFinalGrade, 1e-9)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	sessions := []event.StudySession{
		{StartMillis: 1700000000000, DurationMillis: 1000},
		{StartMillis: 1700100000000, DurationMillis: 2000},
		{StartMillis: 1700200000000, DurationMillis: 3000},
	}
	courses := []event.CourseActivity{
		{CourseID: "C01", Visits: 1, Quizzes: []event.QuizAttempt{{Score: ptr(5.0)}}},
		{CourseID: "C02", Visits: 3, Quizzes: []event.QuizAttempt{{Score: ptr(9.0)}}},
	}

	forward := Aggregate(event.Set{Sessions: sessions, Courses: courses}, asOf)

	reversedSessions := []event.StudySession{sessions[2], sessions[1], sessions[0]}
	reversedCourses := []event.CourseActivity{courses[1], courses[0]}
	backward := Aggregate(event.Set{Sessions: reversedSessions, Courses: reversedCourses}, asOf)

	assert.Equal(t, forward, backward)
}

func TestAggregate_LatenessRelativeToAsOf(t *testing.T) {
	due := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	set := event.Set{
		Courses: []event.CourseActivity{
			{
				CourseID: "C01",
				Assignments: []event.AssignmentSubmission{
					{Submitted: true, DueDate: &due},
				},
			},
		},
	}

	before := Aggregate(set, due.AddDate(0, 0, -1))
	after := Aggregate(set, due.AddDate(0, 0, 1))

	assert.Equal(t, 0.0, before.LateSubmissionRatio)
	assert.Equal(t, 1.0, after.LateSubmissionRatio)
}

func TestMeanOf(t *testing.T) {
	a := Vector{TotalTimeSpent: 100, AvgQuizScore: 8}
	b := Vector{TotalTimeSpent: 300, AvgQuizScore: 4}

	m := MeanOf([]Vector{a, b})
	assert.Equal(t, 200.0, m.TotalTimeSpent)
	assert.Equal(t, 6.0, m.AvgQuizScore)

	assert.Equal(t, Vector{}, MeanOf(nil))
}

func TestVector_ValuesMatchesOrder(t *testing.T) {
	v := Vector{
		TotalTimeSpent:      1,
		ActiveDays:          2,
		AccessFrequency:     3,
		AvgQuizScore:        4,
		QuizScoreStd:        5,
		AvgAssignmentScore:  6,
		LateSubmissionRatio: 7,
		AvgFinalGrade:       8,
	}

	values := v.Values()
	require.Len(t, values, Count)
	for i, name := range Order() {
		got, ok := v.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, values[i], got, name)
	}
}
