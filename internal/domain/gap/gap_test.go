package gap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grade(courseID string, value float64) CourseGrade {
	return CourseGrade{CourseID: courseID, FinalGrade: &value}
}

func TestGradeBands_Classification(t *testing.T) {
	bands := DefaultGradeBands()
	grades := []CourseGrade{
		grade("C01", 3.5),
		grade("C02", 5.0), // ровно на границе - не слабый
		grade("C03", 7.0), // ровно на границе - сильный
		grade("C04", 6.9),
		{CourseID: "C05"}, // без оценки - ни слабый, ни сильный
	}

	weak := WeakCourses(grades, bands)
	require.Len(t, weak, 1)
	assert.Equal(t, "C01", weak[0].CourseID)

	strong := StrongCourses(grades, bands)
	require.Len(t, strong, 1)
	assert.Equal(t, "C03", strong[0].CourseID)
}

func TestGradeBands_Validate(t *testing.T) {
	assert.NoError(t, DefaultGradeBands().Validate())
	assert.Error(t, GradeBands{Weak: 8, Strong: 5}.Validate())
}

func TestDetect_WeakPrerequisite(t *testing.T) {
	enrolled := []string{"C03", "C05", "C06"}
	grades := []CourseGrade{
		grade("C01", 3.0), // слабый пререквизит C03 и C05
		grade("C02", 8.0),
	}
	names := map[string]string{
		"C01": "Intro to Programming",
		"C03": "Algorithms",
	}

	gaps := Detect(enrolled, grades, DefaultPrerequisites(), DefaultGradeBands(), names)

	require.Len(t, gaps, 2)

	assert.Equal(t, "C03", gaps[0].CourseID)
	assert.Equal(t, "Algorithms", gaps[0].CourseName)
	assert.Equal(t, "C01", gaps[0].MissingPrerequisite)
	assert.Equal(t, "Intro to Programming", gaps[0].MissingPrerequisiteName)
	assert.Equal(t, gaps[0].MissingPrerequisite, gaps[0].WeakIn)

	assert.Equal(t, "C05", gaps[1].CourseID)
	// Название не передано - используется идентификатор.
	assert.Equal(t, "C05", gaps[1].CourseName)
	assert.Equal(t, "C01", gaps[1].MissingPrerequisite)
}

func TestDetect_NoWeakCoursesNoGaps(t *testing.T) {
	enrolled := []string{"C03", "C04"}
	grades := []CourseGrade{grade("C01", 9.0), grade("C02", 8.5)}

	gaps := Detect(enrolled, grades, DefaultPrerequisites(), DefaultGradeBands(), nil)
	assert.Empty(t, gaps)
}

func TestDetect_CourseWithoutPrerequisites(t *testing.T) {
	enrolled := []string{"C01", "C02"}
	grades := []CourseGrade{grade("C01", 2.0)}

	gaps := Detect(enrolled, grades, DefaultPrerequisites(), DefaultGradeBands(), nil)
	assert.Empty(t, gaps)
}

func TestDetect_MultiplePrerequisitesOrdered(t *testing.T) {
	enrolled := []string{"C04"}
	grades := []CourseGrade{
		grade("C01", 2.0),
		grade("C02", 3.0),
		grade("C03", 9.0),
	}

	gaps := Detect(enrolled, grades, DefaultPrerequisites(), DefaultGradeBands(), nil)

	require.Len(t, gaps, 2)
	// Порядок следует порядку пререквизитов в графе.
	assert.Equal(t, "C01", gaps[0].MissingPrerequisite)
	assert.Equal(t, "C02", gaps[1].MissingPrerequisite)
}

func TestCourseGrade_DisplayName(t *testing.T) {
	assert.Equal(t, "Algorithms", CourseGrade{CourseID: "C03", CourseName: "Algorithms"}.DisplayName())
	assert.Equal(t, "C03", CourseGrade{CourseID: "C03"}.DisplayName())
}
