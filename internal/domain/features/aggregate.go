package features

import (
	"math"
	"time"

	"github.com/MoeApps/AcademIQ/internal/domain/event"
	"github.com/MoeApps/AcademIQ/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FEATURE AGGREGATOR
// Сводит нормализованный набор событий одного студента в плотный
// вектор признаков. Агрегация коммутативна: суммы, средние и счётчики
// не зависят от порядка событий во входе.
// ══════════════════════════════════════════════════════════════════════════════

// Aggregate вычисляет вектор признаков по набору событий.
//
// asOf - явный момент оценки: относительно него считается просроченность
// сдач, а его таймзона задаёт календарные дни для active_days.
// Нулевой asOf заменяется текущим временем.
//
// Инвариант: результат всегда полностью заполнен. Любое среднее или
// отклонение по пустой коллекции равно 0.0, деления на ноль исключены.
func Aggregate(set event.Set, asOf time.Time) Vector {
	asOf = timeutil.OrNow(asOf)
	loc := asOf.Location()

	var v Vector

	// total_time_spent: сумма длительностей сессий в миллисекундах.
	// active_days: уникальные календарные даты начал сессий.
	days := make(map[string]struct{}, len(set.Sessions))
	for _, s := range set.Sessions {
		v.TotalTimeSpent += float64(s.DurationMillis)
		days[timeutil.DayKey(s.StartTime(loc), loc)] = struct{}{}
	}
	v.ActiveDays = float64(len(days))

	// access_frequency: среднее число заходов на курс, 0 без курсов.
	if len(set.Courses) > 0 {
		visits := 0.0
		for _, c := range set.Courses {
			visits += float64(c.Visits)
		}
		v.AccessFrequency = visits / float64(len(set.Courses))
	}

	// Квизы: среднее и популяционное std по имеющимся баллам.
	var quizScores []float64
	for _, c := range set.Courses {
		for _, q := range c.Quizzes {
			if q.Score != nil {
				quizScores = append(quizScores, *q.Score)
			}
		}
	}
	v.AvgQuizScore = mean(quizScores)
	v.QuizScoreStd = populationStd(quizScores)

	// Задания: средняя оценка по распарсившимся, доля просроченных
	// среди всех сдач (в том числе без оценки).
	var assignmentScores []float64
	lateCount := 0
	totalAssignments := 0
	for _, c := range set.Courses {
		for _, a := range c.Assignments {
			totalAssignments++
			if a.GradeRatio != nil {
				assignmentScores = append(assignmentScores, *a.GradeRatio)
			}
			if a.IsLate(asOf) {
				lateCount++
			}
		}
	}
	v.AvgAssignmentScore = mean(assignmentScores)
	if totalAssignments > 0 {
		v.LateSubmissionRatio = float64(lateCount) / float64(totalAssignments)
	}

	// Итоговые оценки курсов.
	var finalGrades []float64
	for _, c := range set.Courses {
		if c.FinalGradeRatio != nil {
			finalGrades = append(finalGrades, *c.FinalGradeRatio)
		}
	}
	v.AvgFinalGrade = mean(finalGrades)

	return v
}

// mean возвращает среднее арифметическое; 0.0 для пустого среза.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStd возвращает популяционное стандартное отклонение
// (делитель N, как в numpy.std); 0.0 для пустого среза.
func populationStd(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// MeanOf считает покомпонентное среднее набора векторов.
// Используется эксплейнером для средних по популяции; пустой вход
// даёт нулевой вектор, а не NaN.
func MeanOf(vectors []Vector) Vector {
	if len(vectors) == 0 {
		return Vector{}
	}
	sums := make([]float64, Count)
	for _, v := range vectors {
		for i, val := range v.Values() {
			sums[i] += val
		}
	}
	n := float64(len(vectors))
	for i := range sums {
		sums[i] /= n
	}
	return FromValues(sums)
}
