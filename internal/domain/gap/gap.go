// Package gap содержит правило-ориентированное обнаружение пробелов
// в знаниях: студент записан на курс, пререквизит которого он знает слабо.
// Это чистый доменный слой без внешних зависимостей.
package gap

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// PREREQUISITE GRAPH
// Статический граф "курс -> обязательные пререквизиты" из учебного плана
// ("курс A раньше курса B"). Граф задаётся конфигурацией, ниже - план
// по умолчанию.
// ══════════════════════════════════════════════════════════════════════════════

// Prerequisites - граф пререквизитов: course_id -> обязательные course_id.
type Prerequisites map[string][]string

// DefaultPrerequisites возвращает учебный план по умолчанию.
func DefaultPrerequisites() Prerequisites {
	return Prerequisites{
		"C03": {"C01", "C02"},
		"C04": {"C01", "C02", "C03"},
		"C05": {"C01"},
		"C06": {"C02"},
	}
}

// RequiredFor возвращает пререквизиты курса (пустой срез, если их нет).
func (p Prerequisites) RequiredFor(courseID string) []string {
	return p[courseID]
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADE BANDS
// Пороги слабых и сильных курсов по итоговой оценке. Оценки здесь -
// в шкале хранения журнала (0-10), а не в процентном ratio признаков:
// это два разных представления, см. DESIGN.md.
// ══════════════════════════════════════════════════════════════════════════════

// GradeBands - числовые пороги классификации курсов.
type GradeBands struct {
	// Weak - строгая верхняя граница слабого курса (grade < Weak).
	Weak float64

	// Strong - нижняя граница сильного курса (grade >= Strong).
	Strong float64
}

// DefaultGradeBands возвращает пороги по умолчанию: слабый < 5.0,
// сильный >= 7.0 по десятибалльной шкале.
func DefaultGradeBands() GradeBands {
	return GradeBands{Weak: 5.0, Strong: 7.0}
}

// Validate проверяет согласованность порогов.
func (b GradeBands) Validate() error {
	if b.Weak > b.Strong {
		return fmt.Errorf("gap: weak cutoff %.1f above strong cutoff %.1f", b.Weak, b.Strong)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE GRADES
// ══════════════════════════════════════════════════════════════════════════════

// CourseGrade - итоговая оценка студента за курс.
type CourseGrade struct {
	// CourseID - идентификатор курса.
	CourseID string

	// CourseName - название курса (пустое заменяется идентификатором).
	CourseName string

	// FinalGrade - итоговая оценка; nil, если курс ещё не оценён.
	// Неоценённый курс не считается ни слабым, ни сильным.
	FinalGrade *float64
}

// DisplayName возвращает название курса для текстов рекомендаций.
func (g CourseGrade) DisplayName() string {
	if g.CourseName != "" {
		return g.CourseName
	}
	return g.CourseID
}

// WeakCourses возвращает курсы с оценкой ниже порога слабости.
func WeakCourses(grades []CourseGrade, bands GradeBands) []CourseGrade {
	var weak []CourseGrade
	for _, g := range grades {
		if g.FinalGrade != nil && *g.FinalGrade < bands.Weak {
			weak = append(weak, g)
		}
	}
	return weak
}

// StrongCourses возвращает курсы с оценкой не ниже порога силы.
func StrongCourses(grades []CourseGrade, bands GradeBands) []CourseGrade {
	var strong []CourseGrade
	for _, g := range grades {
		if g.FinalGrade != nil && *g.FinalGrade >= bands.Strong {
			strong = append(strong, g)
		}
	}
	return strong
}

// ══════════════════════════════════════════════════════════════════════════════
// GAP DETECTION
// ══════════════════════════════════════════════════════════════════════════════

// Gap - обнаруженный пробел: студент записан на CourseID, но слаб
// в его пререквизите MissingPrerequisite.
type Gap struct {
	// CourseID - курс, на который студент записан.
	CourseID string `json:"course_id"`

	// CourseName - название этого курса.
	CourseName string `json:"course_name"`

	// MissingPrerequisite - пререквизит, в котором студент слаб.
	MissingPrerequisite string `json:"missing_prerequisite"`

	// MissingPrerequisiteName - название пререквизита.
	MissingPrerequisiteName string `json:"missing_prerequisite_name"`

	// WeakIn - дублирует MissingPrerequisite (контракт исходного API).
	WeakIn string `json:"weak_in"`
}

// Detect находит пробелы в знаниях студента.
//
// enrolled - курсы, на которые студент записан; grades - его итоговые
// оценки; courseNames - названия курсов для текстов (необязательно).
// Порядок результата детерминирован порядком enrolled и порядком
// пререквизитов в графе.
func Detect(enrolled []string, grades []CourseGrade, prereqs Prerequisites, bands GradeBands, courseNames map[string]string) []Gap {
	weak := make(map[string]struct{})
	for _, g := range WeakCourses(grades, bands) {
		weak[g.CourseID] = struct{}{}
	}

	name := func(courseID string) string {
		if n, ok := courseNames[courseID]; ok && n != "" {
			return n
		}
		return courseID
	}

	var gaps []Gap
	for _, courseID := range enrolled {
		for _, prereqID := range prereqs.RequiredFor(courseID) {
			if _, ok := weak[prereqID]; !ok {
				continue
			}
			gaps = append(gaps, Gap{
				CourseID:                courseID,
				CourseName:              name(courseID),
				MissingPrerequisite:     prereqID,
				MissingPrerequisiteName: name(prereqID),
				WeakIn:                  prereqID,
			})
		}
	}
	return gaps
}
