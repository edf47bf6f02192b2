package event

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RAW PAYLOAD (wire-формат LMS-расширения)
// Все необязательные поля - указатели: так отличаем "нет значения"
// от нулевого значения. Валидация происходит здесь, на границе;
// дальше по конвейеру неоднозначность не распространяется.
// ══════════════════════════════════════════════════════════════════════════════

// RawPayload - сырая выгрузка активности одного студента.
type RawPayload struct {
	StudentID    string               `json:"student_id"`
	Clicks       int                  `json:"clicks"`
	LastActivity int64                `json:"lastActivity"`
	Sessions     []RawSession         `json:"sessions"`
	Courses      map[string]RawCourse `json:"courses"`
}

// RawSession - сырая запись о сессии.
type RawSession struct {
	Start          *int64 `json:"start"`
	End            *int64 `json:"end"`
	DurationMillis *int64 `json:"duration_ms"`
}

// RawQuiz - сырая запись о попытке квиза.
type RawQuiz struct {
	Title           string   `json:"title"`
	Attempts        *int     `json:"attempts"`
	Score           *float64 `json:"score"`
	MaxScore        *float64 `json:"max_score"`
	Timestamp       *int64   `json:"timestamp"`
	TimeSpentMillis *int64   `json:"time_spent_ms"`
}

// RawAssignment - сырая запись о сдаче задания.
type RawAssignment struct {
	Title   string  `json:"title"`
	DueDate *string `json:"due_date"`
	Submit  bool    `json:"submitted"`
	Grade   *string `json:"grade"`
}

// RawCourse - сырая запись об активности в курсе.
type RawCourse struct {
	CourseID        string          `json:"course_id"`
	Name            string          `json:"name"`
	Visits          int             `json:"visits"`
	TimeSpentMillis int64           `json:"time_spent_ms"`
	Assignments     []RawAssignment `json:"assignments"`
	Quizzes         []RawQuiz       `json:"quizzes"`
	FinalGrade      *string         `json:"final_grade"`
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADE PARSING
// ══════════════════════════════════════════════════════════════════════════════

// ParseGradeRatio парсит строку оценки вида "value/max" в отношение value/max.
// "17/20" -> 0.85. Любая не соответствующая формату строка отбрасывается:
// ok=false, а не ноль. Ноль исказил бы среднее, отсутствие значения - нет.
func ParseGradeRatio(s string) (float64, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 {
		return 0, false
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, false
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || max == 0 {
		return 0, false
	}
	return val / max, true
}

// ParsePercentRatio парсит процентную оценку вида "NN%" в NN/100.
// "85%" -> 0.85, "150%" -> 1.5 (значения выше 100% не обрезаются).
// Суффикс "%" необязателен: "85" тоже принимается, как и в исходной LMS.
func ParsePercentRatio(s string) (float64, bool) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(s), "%")
	if trimmed == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return val / 100, true
}

// dueDateLayouts - поддерживаемые форматы дедлайнов, от самого строгого.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDueDate парсит дедлайн задания. Нераспарсившаяся дата - это
// задание без дедлайна, а не ошибка всего батча.
func parseDueDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// NORMALIZER
// ══════════════════════════════════════════════════════════════════════════════

// Normalize превращает сырой payload в типизированный набор событий.
// Контракт: испорченные отдельные записи молча отбрасываются
// (с подсчётом в Set.Dropped), ошибка одного поля никогда не валит
// весь батч. Наружу ошибка уходит только если нечего нормализовать вовсе.
func Normalize(raw RawPayload) (Set, error) {
	set := Set{
		StudentID: StudentID(raw.StudentID),
	}

	for _, rs := range raw.Sessions {
		session, ok := normalizeSession(rs)
		if !ok {
			set.Dropped++
			continue
		}
		set.Sessions = append(set.Sessions, session)
	}

	// map в Go итерируется в случайном порядке; сортируем по course_id,
	// чтобы нормализованный набор был детерминированным.
	courseKeys := make([]string, 0, len(raw.Courses))
	for key := range raw.Courses {
		courseKeys = append(courseKeys, key)
	}
	sort.Strings(courseKeys)

	for _, key := range courseKeys {
		rc := raw.Courses[key]
		course, dropped := normalizeCourse(key, rc)
		set.Dropped += dropped
		set.Courses = append(set.Courses, course)
	}

	if set.IsEmpty() && set.Dropped == 0 {
		return set, ErrEmptyPayload
	}
	return set, nil
}

// normalizeSession валидирует одну запись о сессии.
// Требуется start; длительность берём из duration_ms либо выводим
// из end-start. Запись без того и другого отбрасывается.
func normalizeSession(rs RawSession) (StudySession, bool) {
	if rs.Start == nil || *rs.Start <= 0 {
		return StudySession{}, false
	}

	session := StudySession{StartMillis: *rs.Start}
	if rs.End != nil {
		session.EndMillis = *rs.End
	}

	switch {
	case rs.DurationMillis != nil && *rs.DurationMillis >= 0:
		session.DurationMillis = *rs.DurationMillis
	case rs.End != nil && *rs.End >= *rs.Start:
		session.DurationMillis = *rs.End - *rs.Start
	default:
		return StudySession{}, false
	}

	return session, true
}

// normalizeCourse валидирует активность в одном курсе.
// Возвращает курс и количество отброшенных вложенных записей.
func normalizeCourse(key string, rc RawCourse) (CourseActivity, int) {
	dropped := 0

	courseID := rc.CourseID
	if courseID == "" {
		// Ключ словаря курсов дублирует course_id в выгрузке расширения.
		courseID = key
	}

	course := CourseActivity{
		CourseID:        CourseID(courseID),
		Name:            rc.Name,
		Visits:          rc.Visits,
		TimeSpentMillis: rc.TimeSpentMillis,
	}
	if course.Name == "" {
		course.Name = courseID
	}

	for _, rq := range rc.Quizzes {
		quiz := QuizAttempt{Title: rq.Title}
		if rq.Attempts != nil && *rq.Attempts >= 0 {
			quiz.AttemptNumber = *rq.Attempts
		}
		if rq.Score != nil {
			score := *rq.Score
			quiz.Score = &score
		}
		if rq.MaxScore != nil && *rq.MaxScore > 0 {
			max := *rq.MaxScore
			quiz.MaxScore = &max
		}
		if rq.Timestamp != nil && *rq.Timestamp > 0 {
			quiz.TimestampMillis = *rq.Timestamp
		}
		if rq.TimeSpentMillis != nil && *rq.TimeSpentMillis >= 0 {
			quiz.TimeSpentMillis = *rq.TimeSpentMillis
		}
		course.Quizzes = append(course.Quizzes, quiz)
	}

	for _, ra := range rc.Assignments {
		assignment := AssignmentSubmission{
			Title:     ra.Title,
			Submitted: ra.Submit,
		}
		if ra.DueDate != nil {
			assignment.DueDate = parseDueDate(*ra.DueDate)
			if assignment.DueDate == nil && *ra.DueDate != "" {
				// Дедлайн был, но не распарсился: поле глотаем, запись оставляем.
				dropped++
			}
		}
		if ra.Grade != nil {
			if ratio, ok := ParseGradeRatio(*ra.Grade); ok {
				assignment.GradeRatio = &ratio
			}
		}
		course.Assignments = append(course.Assignments, assignment)
	}

	if rc.FinalGrade != nil {
		if ratio, ok := ParsePercentRatio(*rc.FinalGrade); ok {
			course.FinalGradeRatio = &ratio
		}
	}

	return course, dropped
}
