package risk

import (
	"math"
	"math/rand"
	"time"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
)

// ══════════════════════════════════════════════════════════════════════════════
// OFFLINE TRAINING
// Разовый батч-шаг: стандартизация популяционной таблицы и разбиение
// k-means (k=3). Запускается из cmd/trainer, в онлайн-пути запроса
// обучения нет - скоринг работает только с готовыми артефактами.
// ══════════════════════════════════════════════════════════════════════════════

// TrainConfig - параметры обучения.
type TrainConfig struct {
	// K - количество кластеров.
	K int

	// MaxIterations - максимум итераций Ллойда на один рестарт.
	MaxIterations int

	// Restarts - количество рестартов с разной инициализацией;
	// берётся разбиение с минимальной инерцией.
	Restarts int

	// Seed - зерно генератора. Фиксированное зерно даёт
	// воспроизводимое обучение.
	Seed int64
}

// DefaultTrainConfig возвращает параметры, эквивалентные исходной
// конфигурации модели (k=3, n_init=10, фиксированное зерно).
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		K:             3,
		MaxIterations: 300,
		Restarts:      10,
		Seed:          42,
	}
}

// Train обучает модель риска на векторах популяции.
// Возвращает готовые артефакты: параметры стандартизации и центроиды.
func Train(vectors []features.Vector, cfg TrainConfig) (*Artifacts, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyPopulation
	}
	if cfg.K <= 0 {
		cfg.K = 3
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 300
	}
	if cfg.Restarts <= 0 {
		cfg.Restarts = 10
	}
	if len(vectors) < cfg.K {
		// Студентов меньше, чем кластеров: уменьшаем k до размера выборки.
		cfg.K = len(vectors)
	}

	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		rows[i] = v.Values()
	}

	mean, scale := fitScaler(rows)
	scaled := make([][]float64, len(rows))
	for i, row := range rows {
		scaled[i] = make([]float64, len(row))
		for j, x := range row {
			s := scale[j]
			if s == 0 {
				s = 1
			}
			scaled[i][j] = (x - mean[j]) / s
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	var bestCentroids [][]float64
	bestInertia := math.Inf(1)
	for r := 0; r < cfg.Restarts; r++ {
		centroids, inertia := lloyd(scaled, cfg.K, cfg.MaxIterations, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			bestCentroids = centroids
		}
	}

	return &Artifacts{
		FeatureOrder: features.Order(),
		Mean:         mean,
		Scale:        scale,
		Centroids:    bestCentroids,
		TrainedAt:    time.Now().UTC(),
	}, nil
}

// fitScaler считает среднее и популяционный std по каждому столбцу.
func fitScaler(rows [][]float64) (mean, scale []float64) {
	cols := len(rows[0])
	mean = make([]float64, cols)
	scale = make([]float64, cols)

	for _, row := range rows {
		for j, x := range row {
			mean[j] += x
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range rows {
		for j, x := range row {
			d := x - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
	}
	return mean, scale
}

// lloyd - один рестарт k-means: k-means++ инициализация плюс итерации
// Ллойда до сходимости. Возвращает центроиды и инерцию разбиения.
func lloyd(points [][]float64, k, maxIter int, rng *rand.Rand) ([][]float64, float64) {
	centroids := seedPlusPlus(points, k, rng)
	assignments := make([]int, len(points))

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			c := nearestCentroid(p, centroids)
			if c != assignments[i] {
				assignments[i] = c
				changed = true
			}
		}

		// Пересчёт центроидов. Опустевший кластер получает самую
		// дальнюю от своего центроида точку, чтобы k не деградировал.
		dims := len(points[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			c := assignments[i]
			counts[c]++
			for j, x := range p {
				sums[c][j] += x
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				far := farthestPoint(points, assignments, centroids)
				copy(sums[c], points[far])
				counts[c] = 1
				assignments[far] = c
			}
			for j := range sums[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	inertia := 0.0
	for i, p := range points {
		inertia += squaredDistance(p, centroids[assignments[i]])
	}
	return centroids, inertia
}

// seedPlusPlus выбирает стартовые центроиды по схеме k-means++:
// каждая следующая точка выбирается с вероятностью, пропорциональной
// квадрату расстояния до ближайшего уже выбранного центроида.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	dists := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := squaredDistance(p, centroids[len(centroids)-1])
			if len(centroids) == 1 || d < dists[i] {
				dists[i] = d
			}
			total += dists[i]
		}

		if total == 0 {
			// Все точки совпадают с центроидами; добираем произвольными.
			p := points[rng.Intn(len(points))]
			centroids = append(centroids, append([]float64(nil), p...))
			continue
		}

		target := rng.Float64() * total
		acc := 0.0
		chosen := len(points) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), points[chosen]...))
	}
	return centroids
}

// farthestPoint возвращает индекс точки, самой дальней от центроида
// своего кластера.
func farthestPoint(points [][]float64, assignments []int, centroids [][]float64) int {
	best := 0
	bestDist := -1.0
	for i, p := range points {
		d := squaredDistance(p, centroids[assignments[i]])
		if d > bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
