// Package risk содержит модель оценки риска студента: скоринг по
// предобученной кластерной модели, обучение этой модели (оффлайн)
// и объяснение результата через сравнение с популяцией.
// Это чистый доменный слой без внешних зависимостей.
package risk

import (
	"errors"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrModelUnavailable - артефакты модели отсутствуют или непригодны.
	// Скоринг с такой ошибкой терминален для одного запроса, но не для сервиса.
	ErrModelUnavailable = errors.New("risk: model artifacts unavailable")

	// ErrArtifactsInvalid - артефакты не согласованы между собой
	// (размерности скейлера, центроидов и порядка признаков расходятся).
	ErrArtifactsInvalid = errors.New("risk: model artifacts are inconsistent")

	// ErrStudentNotFound - студента нет в популяционной таблице.
	ErrStudentNotFound = errors.New("risk: student not found in population table")

	// ErrEmptyPopulation - популяционная таблица пуста, обучать не на чем.
	ErrEmptyPopulation = errors.New("risk: population table is empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// RISK LEVEL
// ══════════════════════════════════════════════════════════════════════════════

// Level - ординальная метка риска, выводимая из номера кластера.
type Level string

const (
	// LevelLow - низкий риск.
	LevelLow Level = "LOW"
	// LevelMedium - средний риск.
	LevelMedium Level = "MEDIUM"
	// LevelHigh - высокий риск, требуется вмешательство.
	LevelHigh Level = "HIGH"
	// LevelUnknown - защитная метка для кластера вне известного диапазона.
	LevelUnknown Level = "UNKNOWN"
)

// IsValid проверяет, что метка известна.
func (l Level) IsValid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelUnknown:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLUSTER -> LEVEL MAPPING
// Фиксированное ручное соответствие: модель выдаёт номер кластера,
// человеку показывается метка и заготовленная рекомендация.
// ══════════════════════════════════════════════════════════════════════════════

// clusterLevels - соответствие кластера метке риска.
var clusterLevels = map[int]Level{
	0: LevelLow,
	1: LevelMedium,
	2: LevelHigh,
}

// clusterRecommendations - заготовленные рекомендации по кластерам.
var clusterRecommendations = map[int]string{
	0: "Low risk – Keep up the good work!",
	1: "Medium risk – Focus on weak courses.",
	2: "High risk – Immediate intervention recommended!",
}

// unknownRecommendation - запасной текст для неизвестного кластера.
const unknownRecommendation = "Unknown risk level"

// LevelForCluster переводит номер кластера в метку риска.
// Кластер вне диапазона - это LevelUnknown, а не паника: модель могла
// быть переобучена с другим k, сервис при этом падать не должен.
func LevelForCluster(cluster int) Level {
	if level, ok := clusterLevels[cluster]; ok {
		return level
	}
	return LevelUnknown
}

// RecommendationForCluster возвращает заготовленный текст рекомендации.
func RecommendationForCluster(cluster int) string {
	if text, ok := clusterRecommendations[cluster]; ok {
		return text
	}
	return unknownRecommendation
}

// RecommendationForLevel возвращает заготовленный текст по метке риска.
func RecommendationForLevel(level Level) string {
	for cluster, l := range clusterLevels {
		if l == level {
			return clusterRecommendations[cluster]
		}
	}
	return unknownRecommendation
}

// ParseLevel парсит строку метки риска. Исходная система хранила метки
// в разных регистрах ("High Risk", "HIGH"), поэтому парсер снисходителен.
func ParseLevel(s string) Level {
	switch {
	case containsFold(s, "low"):
		return LevelLow
	case containsFold(s, "medium"), containsFold(s, "mid"):
		return LevelMedium
	case containsFold(s, "high"):
		return LevelHigh
	default:
		return LevelUnknown
	}
}

// containsFold - регистронезависимый поиск подстроки ASCII.
func containsFold(s, substr string) bool {
	n := len(substr)
	if n == 0 {
		return true
	}
	for i := 0; i+n <= len(s); i++ {
		j := 0
		for j < n && lowerASCII(s[i+j]) == lowerASCII(substr[j]) {
			j++
		}
		if j == n {
			return true
		}
	}
	return false
}

func lowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSESSMENT
// ══════════════════════════════════════════════════════════════════════════════

// Assessment - результат скоринга одного студента.
// Производная величина: пересчитывается на каждый запрос из выхода
// кластерной модели, авторитетно нигде не хранится.
type Assessment struct {
	// Cluster - номер кластера риска из модели.
	Cluster int `json:"risk_cluster"`

	// Level - метка риска, выведенная из кластера.
	Level Level `json:"risk_level"`

	// Recommendation - заготовленный текст рекомендации.
	Recommendation string `json:"recommendation"`
}

// NewAssessment собирает оценку по номеру кластера.
func NewAssessment(cluster int) Assessment {
	return Assessment{
		Cluster:        cluster,
		Level:          LevelForCluster(cluster),
		Recommendation: RecommendationForCluster(cluster),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// POPULATION TABLE ROW
// ══════════════════════════════════════════════════════════════════════════════

// PopulationRow - строка популяционной таблицы: признаки студента
// плюс присвоенный на этапе обучения кластер. Таблица только читается.
type PopulationRow struct {
	StudentID      string
	Features       features.Vector
	Cluster        int
	Level          Level
	Recommendation string
}

// Means считает средние значения признаков по популяции.
func Means(rows []PopulationRow) features.Vector {
	vectors := make([]features.Vector, len(rows))
	for i, r := range rows {
		vectors[i] = r.Features
	}
	return features.MeanOf(vectors)
}
