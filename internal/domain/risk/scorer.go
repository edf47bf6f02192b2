package risk

import (
	"time"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODEL ARTIFACTS
// Результат оффлайн-обучения: параметры стандартизации и центроиды
// кластеров. После загрузки артефакты неизменяемы.
// ══════════════════════════════════════════════════════════════════════════════

// Artifacts - сериализуемые артефакты обученной модели.
type Artifacts struct {
	// FeatureOrder - порядок признаков, на котором обучался скейлер.
	// Обязан совпадать с features.Order().
	FeatureOrder []string `json:"feature_order"`

	// Mean - среднее каждого признака по обучающей выборке.
	Mean []float64 `json:"mean"`

	// Scale - масштаб (std) каждого признака по обучающей выборке.
	Scale []float64 `json:"scale"`

	// Centroids - центроиды кластеров в стандартизированном пространстве.
	Centroids [][]float64 `json:"centroids"`

	// TrainedAt - момент обучения.
	TrainedAt time.Time `json:"trained_at"`
}

// Validate проверяет согласованность артефактов между собой
// и с каноническим порядком признаков.
func (a *Artifacts) Validate() error {
	if a == nil {
		return ErrModelUnavailable
	}
	if len(a.FeatureOrder) != features.Count {
		return ErrArtifactsInvalid
	}
	for i, name := range features.Order() {
		if a.FeatureOrder[i] != name {
			return ErrArtifactsInvalid
		}
	}
	if len(a.Mean) != features.Count || len(a.Scale) != features.Count {
		return ErrArtifactsInvalid
	}
	if len(a.Centroids) == 0 {
		return ErrArtifactsInvalid
	}
	for _, c := range a.Centroids {
		if len(c) != features.Count {
			return ErrArtifactsInvalid
		}
	}
	return nil
}

// K возвращает количество кластеров.
func (a *Artifacts) K() int {
	if a == nil {
		return 0
	}
	return len(a.Centroids)
}

// Standardize переводит вектор в пространство модели: (x - mean) / scale
// по каждому признаку. Нулевой масштаб (константный признак в выборке)
// трактуется как 1, как это делает StandardScaler.
func (a *Artifacts) Standardize(v features.Vector) []float64 {
	values := v.Values()
	out := make([]float64, len(values))
	for i, x := range values {
		scale := a.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - a.Mean[i]) / scale
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORER
// Явный вариант Ready/Unavailable вместо nullable-модели: скоринг
// холодной модели - это типизированная ошибка, а не разыменование nil.
// ══════════════════════════════════════════════════════════════════════════════

// Scorer присваивает студенту кластер риска по предобученной модели.
// Потокобезопасен: после создания состояние только читается.
type Scorer struct {
	artifacts *Artifacts
}

// NewScorer создаёт готовый к работе Scorer.
// Возвращает ErrArtifactsInvalid на несогласованных артефактах.
func NewScorer(artifacts *Artifacts) (*Scorer, error) {
	if artifacts == nil {
		return nil, ErrModelUnavailable
	}
	if err := artifacts.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{artifacts: artifacts}, nil
}

// UnavailableScorer возвращает Scorer в состоянии Unavailable.
// Используется, когда сервис поднимается без артефактов: все вызовы
// Score вернут ErrModelUnavailable, остальные операции сервиса живут.
func UnavailableScorer() *Scorer {
	return &Scorer{}
}

// Ready сообщает, загружена ли модель.
func (s *Scorer) Ready() bool {
	return s != nil && s.artifacts != nil
}

// Score присваивает вектору признаков кластер риска.
// Чистая функция от стандартизированного вектора: один и тот же вход
// всегда даёт один и тот же кластер.
func (s *Scorer) Score(v features.Vector) (Assessment, error) {
	if !s.Ready() {
		return Assessment{}, ErrModelUnavailable
	}

	standardized := s.artifacts.Standardize(v)
	cluster, err := s.Assign(standardized)
	if err != nil {
		return Assessment{}, err
	}
	return NewAssessment(cluster), nil
}

// Assign возвращает только номер кластера для стандартизированного вектора.
func (s *Scorer) Assign(standardized []float64) (int, error) {
	if !s.Ready() {
		return 0, ErrModelUnavailable
	}
	return nearestCentroid(standardized, s.artifacts.Centroids), nil
}

// nearestCentroid возвращает индекс ближайшего центроида по квадрату
// евклидова расстояния. При равенстве выигрывает меньший индекс.
func nearestCentroid(point []float64, centroids [][]float64) int {
	best := 0
	bestDist := squaredDistance(point, centroids[0])
	for i := 1; i < len(centroids); i++ {
		d := squaredDistance(point, centroids[i])
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// squaredDistance - квадрат евклидова расстояния между точками.
func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
