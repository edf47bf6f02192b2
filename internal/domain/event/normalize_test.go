package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGradeRatio(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"17/20", 0.85, true},
		{"10/10", 1.0, true},
		{"0/20", 0.0, true},
		{" 3 / 4 ", 0.75, true},
		{"5/0", 0, false},
		{"abc", 0, false},
		{"17", 0, false},
		{"/20", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseGradeRatio(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "input %q", tt.input)
		}
	}
}

func TestParsePercentRatio(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"85%", 0.85, true},
		{"150%", 1.5, true}, // значения выше 100% не обрезаются
		{"85", 0.85, true},
		{"0%", 0.0, true},
		{"%", 0, false},
		{"", 0, false},
		{"abc%", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePercentRatio(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "input %q", tt.input)
		}
	}
}

func TestNormalize_Sessions(t *testing.T) {
	start := int64(1700000000000)
	end := start + 90_000
	duration := int64(60_000)
	negative := int64(-5)

	raw := RawPayload{
		StudentID: "S001",
		Sessions: []RawSession{
			{Start: &start, DurationMillis: &duration}, // явная длительность
			{Start: &start, End: &end},                 // длительность из end-start
			{End: &end},                                // нет start - отбрасывается
			{Start: &negative},                         // отрицательный start
			{Start: &start},                            // ни duration, ни end
		},
	}

	set, err := Normalize(raw)
	require.NoError(t, err)

	require.Len(t, set.Sessions, 2)
	assert.Equal(t, int64(60_000), set.Sessions[0].DurationMillis)
	assert.Equal(t, int64(90_000), set.Sessions[1].DurationMillis)
	assert.Equal(t, 3, set.Dropped)
}

func TestNormalize_CoursesDeterministicOrder(t *testing.T) {
	raw := RawPayload{
		StudentID: "S001",
		Courses: map[string]RawCourse{
			"C03": {Name: "Algorithms", Visits: 5},
			"C01": {Name: "Intro", Visits: 2},
			"C02": {Name: "Math", Visits: 7},
		},
	}

	set, err := Normalize(raw)
	require.NoError(t, err)

	require.Len(t, set.Courses, 3)
	assert.Equal(t, CourseID("C01"), set.Courses[0].CourseID)
	assert.Equal(t, CourseID("C02"), set.Courses[1].CourseID)
	assert.Equal(t, CourseID("C03"), set.Courses[2].CourseID)
}

func TestNormalize_CourseIDFallsBackToMapKey(t *testing.T) {
	raw := RawPayload{
		StudentID: "S001",
		Courses: map[string]RawCourse{
			"C05": {Visits: 1},
		},
	}

	set, err := Normalize(raw)
	require.NoError(t, err)

	require.Len(t, set.Courses, 1)
	assert.Equal(t, CourseID("C05"), set.Courses[0].CourseID)
	assert.Equal(t, "C05", set.Courses[0].Name)
}

func TestNormalize_MalformedGradesExcludedNotZeroed(t *testing.T) {
	goodGrade := "8/10"
	badGrade := "not-a-grade"
	finalGrade := "85%"

	raw := RawPayload{
		StudentID: "S001",
		Courses: map[string]RawCourse{
			"C01": {
				Assignments: []RawAssignment{
					{Title: "hw1", Submit: true, Grade: &goodGrade},
					{Title: "hw2", Submit: true, Grade: &badGrade},
				},
				FinalGrade: &finalGrade,
			},
		},
	}

	set, err := Normalize(raw)
	require.NoError(t, err)

	course := set.Courses[0]
	require.Len(t, course.Assignments, 2)
	require.NotNil(t, course.Assignments[0].GradeRatio)
	assert.InDelta(t, 0.8, *course.Assignments[0].GradeRatio, 1e-9)
	// Испорченная оценка даёт nil, а не ноль.
	assert.Nil(t, course.Assignments[1].GradeRatio)
	require.NotNil(t, course.FinalGradeRatio)
	assert.InDelta(t, 0.85, *course.FinalGradeRatio, 1e-9)
}

func TestNormalize_BadDueDateCountedAsDropped(t *testing.T) {
	badDate := "next tuesday"
	goodDate := "2025-03-01"

	raw := RawPayload{
		StudentID: "S001",
		Courses: map[string]RawCourse{
			"C01": {
				Assignments: []RawAssignment{
					{Title: "hw1", Submit: true, DueDate: &badDate},
					{Title: "hw2", Submit: true, DueDate: &goodDate},
				},
			},
		},
	}

	set, err := Normalize(raw)
	require.NoError(t, err)

	course := set.Courses[0]
	require.Len(t, course.Assignments, 2)
	assert.Nil(t, course.Assignments[0].DueDate)
	assert.NotNil(t, course.Assignments[1].DueDate)
	assert.Equal(t, 1, set.Dropped)
}

func TestNormalize_EmptyPayload(t *testing.T) {
	set, err := Normalize(RawPayload{StudentID: "S001"})
	assert.ErrorIs(t, err, ErrEmptyPayload)
	assert.True(t, set.IsEmpty())
}
