// Package features содержит вектор признаков студента и агрегатор,
// который сводит нормализованный набор событий к вектору фиксированной формы.
// Это чистый доменный слой без внешних зависимостей.
package features

// ══════════════════════════════════════════════════════════════════════════════
// FEATURE NAMES
// Порядок признаков фиксирован и обязан в точности совпадать с порядком,
// на котором обучался стандартизатор модели рисков. Менять его нельзя
// без переобучения модели.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// FeatureTotalTimeSpent - суммарное время в сессиях (миллисекунды).
	FeatureTotalTimeSpent = "total_time_spent"

	// FeatureActiveDays - количество уникальных календарных дней с сессиями.
	FeatureActiveDays = "active_days"

	// FeatureAccessFrequency - среднее число заходов на курс.
	FeatureAccessFrequency = "access_frequency"

	// FeatureAvgQuizScore - средний балл квизов (сырые очки).
	FeatureAvgQuizScore = "avg_quiz_score"

	// FeatureQuizScoreStd - популяционное стандартное отклонение баллов квизов.
	FeatureQuizScoreStd = "quiz_score_std"

	// FeatureAvgAssignmentScore - средняя оценка заданий (ratio "value/max").
	FeatureAvgAssignmentScore = "avg_assignment_score"

	// FeatureLateSubmissionRatio - доля просроченных сдач среди всех заданий.
	FeatureLateSubmissionRatio = "late_submission_ratio"

	// FeatureAvgFinalGrade - средняя итоговая оценка по курсам (ratio из "NN%").
	FeatureAvgFinalGrade = "avg_final_grade"
)

// order - канонический порядок признаков.
var order = [...]string{
	FeatureTotalTimeSpent,
	FeatureActiveDays,
	FeatureAccessFrequency,
	FeatureAvgQuizScore,
	FeatureQuizScoreStd,
	FeatureAvgAssignmentScore,
	FeatureLateSubmissionRatio,
	FeatureAvgFinalGrade,
}

// Count - число признаков в векторе.
const Count = len(order)

// Order возвращает копию канонического порядка признаков.
func Order() []string {
	names := make([]string, Count)
	copy(names[:], order[:])
	return names
}

// ══════════════════════════════════════════════════════════════════════════════
// FEATURE VECTOR
// ══════════════════════════════════════════════════════════════════════════════

// Vector - вектор признаков фиксированной формы.
// Инвариант: вектор всегда плотный. Отсутствующие входные данные
// дают 0.0, никогда не NaN и не "дырку" в векторе.
type Vector struct {
	TotalTimeSpent      float64 `json:"total_time_spent"`
	ActiveDays          float64 `json:"active_days"`
	AccessFrequency     float64 `json:"access_frequency"`
	AvgQuizScore        float64 `json:"avg_quiz_score"`
	QuizScoreStd        float64 `json:"quiz_score_std"`
	AvgAssignmentScore  float64 `json:"avg_assignment_score"`
	LateSubmissionRatio float64 `json:"late_submission_ratio"`
	AvgFinalGrade       float64 `json:"avg_final_grade"`
}

// Values возвращает значения признаков в каноническом порядке.
func (v Vector) Values() []float64 {
	return []float64{
		v.TotalTimeSpent,
		v.ActiveDays,
		v.AccessFrequency,
		v.AvgQuizScore,
		v.QuizScoreStd,
		v.AvgAssignmentScore,
		v.LateSubmissionRatio,
		v.AvgFinalGrade,
	}
}

// Get возвращает значение признака по имени.
func (v Vector) Get(name string) (float64, bool) {
	switch name {
	case FeatureTotalTimeSpent:
		return v.TotalTimeSpent, true
	case FeatureActiveDays:
		return v.ActiveDays, true
	case FeatureAccessFrequency:
		return v.AccessFrequency, true
	case FeatureAvgQuizScore:
		return v.AvgQuizScore, true
	case FeatureQuizScoreStd:
		return v.QuizScoreStd, true
	case FeatureAvgAssignmentScore:
		return v.AvgAssignmentScore, true
	case FeatureLateSubmissionRatio:
		return v.LateSubmissionRatio, true
	case FeatureAvgFinalGrade:
		return v.AvgFinalGrade, true
	default:
		return 0, false
	}
}

// FromValues собирает вектор из значений в каноническом порядке.
// Лишние значения игнорируются, недостающие остаются нулями.
func FromValues(values []float64) Vector {
	var v Vector
	for i, val := range values {
		if i >= Count {
			break
		}
		switch order[i] {
		case FeatureTotalTimeSpent:
			v.TotalTimeSpent = val
		case FeatureActiveDays:
			v.ActiveDays = val
		case FeatureAccessFrequency:
			v.AccessFrequency = val
		case FeatureAvgQuizScore:
			v.AvgQuizScore = val
		case FeatureQuizScoreStd:
			v.QuizScoreStd = val
		case FeatureAvgAssignmentScore:
			v.AvgAssignmentScore = val
		case FeatureLateSubmissionRatio:
			v.LateSubmissionRatio = val
		case FeatureAvgFinalGrade:
			v.AvgFinalGrade = val
		}
	}
	return v
}
