package recommendation

import (
	"fmt"
	"strings"
	"time"

	"github.com/MoeApps/AcademIQ/internal/domain/gap"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNTHESIZER
// Комбинирует три независимых источника причин в список советующих
// записей. Содержимое идемпотентно (одинаковый вход - одинаковые
// тексты), персистентность - нет: каждый вызов добавляет новые строки,
// а не обновляет прежние.
// ══════════════════════════════════════════════════════════════════════════════

// reviewContentPrefix - префикс контента для рекомендаций по пререквизитам.
// Он же - ключ дедупликации content_based записей внутри одного вызова.
const reviewContentPrefix = "Review topic: "

// IDGenerator выдаёт идентификаторы новых записей.
// Генерация внедряется снаружи (uuid в приложении, счётчик в тестах),
// чтобы доменный слой оставался чистым.
type IDGenerator func() string

// Synthesizer собирает советующие записи для одного студента.
type Synthesizer struct {
	now   func() time.Time
	newID IDGenerator
}

// NewSynthesizer создаёт Synthesizer.
// nil-аргументы заменяются time.Now и пустым идентификатором.
func NewSynthesizer(now func() time.Time, newID IDGenerator) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = func() string { return "" }
	}
	return &Synthesizer{now: now, newID: newID}
}

// Input - вход синтеза для одного студента.
type Input struct {
	// StudentID - студент.
	StudentID string

	// Gaps - обнаруженные пробелы в знаниях.
	Gaps []gap.Gap

	// WeakCourses - слабые курсы студента.
	WeakCourses []gap.CourseGrade

	// Level - уровень риска студента (LevelUnknown, если модель молчит).
	Level risk.Level
}

// Synthesize строит батч рекомендаций. Батч не сохраняется здесь:
// персистентность - забота вызывающего (application-слой сохраняет
// весь батч одной транзакцией).
//
// Правила:
//  1. На каждый пробел - запись prerequisite_review.
//  2. На каждый слабый курс, ещё не покрытый пробелом в этом батче, -
//     запись content_based. Ключ дедупликации - префикс контента
//     "Review topic: <название>", как в исходном движке.
//  3. Ровно одна запись risk_intervention, только при высоком риске.
func (s *Synthesizer) Synthesize(in Input) ([]*Recommendation, error) {
	if in.StudentID == "" {
		return nil, ErrInvalidStudentID
	}

	createdAt := s.now().UTC()
	var batch []*Recommendation

	for _, g := range in.Gaps {
		courseID := g.CourseID
		batch = append(batch, &Recommendation{
			ID:        s.newID(),
			StudentID: in.StudentID,
			CourseID:  &courseID,
			Type:      TypePrerequisiteReview,
			Reason:    fmt.Sprintf("Weak in %s; enrolled in %s.", g.MissingPrerequisiteName, g.CourseName),
			Content:   reviewContentPrefix + g.MissingPrerequisiteName,
			CreatedAt: createdAt,
		})
	}

	for _, weak := range in.WeakCourses {
		name := weak.DisplayName()
		if coveredByReview(batch, name) {
			continue
		}
		courseID := weak.CourseID
		batch = append(batch, &Recommendation{
			ID:        s.newID(),
			StudentID: in.StudentID,
			CourseID:  &courseID,
			Type:      TypeContentBased,
			Reason:    fmt.Sprintf("Weak in %s.", name),
			Content:   fmt.Sprintf("Practice exercises and review materials for %s", name),
			CreatedAt: createdAt,
		})
	}

	if in.Level == risk.LevelHigh {
		text := risk.RecommendationForLevel(risk.LevelHigh)
		batch = append(batch, &Recommendation{
			ID:        s.newID(),
			StudentID: in.StudentID,
			CourseID:  nil,
			Type:      TypeRiskIntervention,
			Reason:    text,
			Content:   text,
			CreatedAt: createdAt,
		})
	}

	return batch, nil
}

// coveredByReview сообщает, есть ли в батче prerequisite_review
// запись для курса с данным названием.
func coveredByReview(batch []*Recommendation, courseName string) bool {
	key := reviewContentPrefix + courseName
	for _, rec := range batch {
		if strings.HasPrefix(rec.Content, key) {
			return true
		}
	}
	return false
}
