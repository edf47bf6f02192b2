package risk

import (
	"fmt"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPLAINER
// Структурные причины уровня риска: признаки студента сравниваются
// со средними по популяции. Без SHAP - простое отклонение от среднего,
// как и в обученной модели (кластеры по расстоянию).
// ══════════════════════════════════════════════════════════════════════════════

// featureLabels - человекочитаемые подписи признаков для текста причин.
var featureLabels = map[string]string{
	features.FeatureTotalTimeSpent:      "Total study time",
	features.FeatureActiveDays:          "Active days",
	features.FeatureAccessFrequency:     "Access frequency",
	features.FeatureAvgQuizScore:        "Quiz score average",
	features.FeatureQuizScoreStd:        "Quiz score consistency",
	features.FeatureAvgAssignmentScore:  "Assignment score average",
	features.FeatureLateSubmissionRatio: "Late submission ratio",
	features.FeatureAvgFinalGrade:       "Final grade average",
}

// FeatureLabel возвращает подпись признака; для неизвестного имени -
// само имя.
func FeatureLabel(name string) string {
	if label, ok := featureLabels[name]; ok {
		return label
	}
	return name
}

// Thresholds - пороги отклонения от среднего. Это настраиваемая
// политика, а не физика: по умолчанию значимым считается выход
// за пределы +-10% от среднего по популяции.
type Thresholds struct {
	// Below - множитель нижней границы (отклонение "ниже среднего").
	Below float64

	// Above - множитель верхней границы (отклонение "выше среднего").
	Above float64
}

// DefaultThresholds возвращает пороги по умолчанию (0.9 / 1.1).
func DefaultThresholds() Thresholds {
	return Thresholds{Below: 0.9, Above: 1.1}
}

// Validate проверяет, что пороги заданы осмысленно.
func (t Thresholds) Validate() error {
	if t.Below <= 0 || t.Above <= 0 || t.Below > t.Above {
		return fmt.Errorf("risk: invalid explain thresholds %.2f/%.2f", t.Below, t.Above)
	}
	return nil
}

// Explanation - объяснение уровня риска студента.
type Explanation struct {
	StudentID string   `json:"student_id"`
	Level     Level    `json:"risk_level"`
	Cluster   int      `json:"risk_cluster"`
	Reasons   []string `json:"reasons"`
	Summary   string   `json:"summary"`
}

// Explain строит объяснение для строки популяционной таблицы.
//
// Для каждого признака: значение ниже mean*Below даёт причину
// "below average", выше mean*Above - "above average", иначе признак
// молчит. Если не сработала ни одна причина, единственной причиной
// становится заготовленная рекомендация уровня риска.
func Explain(row PopulationRow, means features.Vector, t Thresholds) Explanation {
	summary := row.Recommendation
	if summary == "" {
		summary = RecommendationForCluster(row.Cluster)
	}

	var reasons []string
	for _, name := range features.Order() {
		value, _ := row.Features.Get(name)
		mean, _ := means.Get(name)
		label := FeatureLabel(name)
		switch {
		case value < mean*t.Below:
			reasons = append(reasons, fmt.Sprintf("%s: below average (%.1f vs %.1f)", label, value, mean))
		case value > mean*t.Above:
			reasons = append(reasons, fmt.Sprintf("%s: above average (%.1f vs %.1f)", label, value, mean))
		}
	}
	if len(reasons) == 0 {
		reasons = []string{summary}
	}

	level := row.Level
	if !level.IsValid() || level == "" {
		level = LevelForCluster(row.Cluster)
	}

	return Explanation{
		StudentID: row.StudentID,
		Level:     level,
		Cluster:   row.Cluster,
		Reasons:   reasons,
		Summary:   summary,
	}
}
