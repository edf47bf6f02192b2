// Package event содержит доменную модель учебных событий AcademIQ.
// Сырые выгрузки из LMS (Moodle-расширение) превращаются здесь
// в типизированные записи. Это чистый доменный слой без внешних зависимостей.
package event

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyPayload - пустой сырой payload.
	ErrEmptyPayload = errors.New("event: payload is empty")

	// ErrInvalidStudentID - отсутствует или некорректен идентификатор студента.
	ErrInvalidStudentID = errors.New("event: invalid student id")
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// StudentID представляет уникальный идентификатор студента.
type StudentID string

// IsValid проверяет, что идентификатор непустой.
func (s StudentID) IsValid() bool {
	return s != ""
}

// String возвращает строковое представление идентификатора.
func (s StudentID) String() string {
	return string(s)
}

// CourseID представляет идентификатор курса (например, "C03").
type CourseID string

// IsValid проверяет, что идентификатор непустой.
func (c CourseID) IsValid() bool {
	return c != ""
}

// String возвращает строковое представление идентификатора.
func (c CourseID) String() string {
	return string(c)
}

// ══════════════════════════════════════════════════════════════════════════════
// TYPED EVENTS (tagged union по виду события)
// ══════════════════════════════════════════════════════════════════════════════

// Kind определяет вид учебного события.
type Kind string

const (
	// KindSession - рабочая сессия студента в LMS.
	KindSession Kind = "session"
	// KindQuiz - попытка прохождения квиза.
	KindQuiz Kind = "quiz"
	// KindAssignment - сдача задания.
	KindAssignment Kind = "assignment"
)

// IsValid проверяет, что вид события известен.
func (k Kind) IsValid() bool {
	switch k {
	case KindSession, KindQuiz, KindAssignment:
		return true
	default:
		return false
	}
}

// StudySession - одна рабочая сессия студента.
// Start хранится как millisecond epoch: именно так его отдаёт LMS-расширение.
type StudySession struct {
	// StartMillis - начало сессии (millisecond epoch).
	StartMillis int64

	// EndMillis - конец сессии (millisecond epoch, 0 если неизвестен).
	EndMillis int64

	// DurationMillis - длительность сессии в миллисекундах.
	DurationMillis int64
}

// StartTime возвращает начало сессии как time.Time в указанной таймзоне.
func (s StudySession) StartTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(s.StartMillis).In(loc)
}

// QuizAttempt - попытка прохождения квиза.
type QuizAttempt struct {
	// Title - название квиза.
	Title string

	// AttemptNumber - номер попытки (0, если LMS его не передала).
	AttemptNumber int

	// Score - набранные баллы (в сырых очках, не ratio).
	// nil означает, что балла нет - такая попытка исключается из средних.
	Score *float64

	// MaxScore - максимально возможный балл. Агрегатор его не использует
	// (средний балл квизов считается по сырым очкам), но поле сохраняем
	// для потребителей ниже по конвейеру.
	MaxScore *float64

	// TimestampMillis - момент попытки (millisecond epoch, 0 если неизвестен).
	TimestampMillis int64

	// TimeSpentMillis - время, потраченное на квиз.
	TimeSpentMillis int64
}

// AssignmentSubmission - сдача задания.
type AssignmentSubmission struct {
	// Title - название задания.
	Title string

	// DueDate - дедлайн задания. nil, если дедлайн не задан
	// или не распарсился - такое задание не может считаться просроченным.
	DueDate *time.Time

	// Submitted - было ли задание сдано.
	Submitted bool

	// GradeRatio - оценка как отношение value/max из строки вида "17/20".
	// nil, если оценки нет или строка не распарсилась: такая оценка
	// исключается из среднего, а не считается нулём.
	GradeRatio *float64
}

// IsLate возвращает true, если задание сдано после дедлайна.
// Просроченность считается относительно явного момента asOf,
// а не неявного wall-clock: это делает агрегацию воспроизводимой
// при повторных прогонах по историческим данным.
func (a AssignmentSubmission) IsLate(asOf time.Time) bool {
	return a.DueDate != nil && a.Submitted && a.DueDate.Before(asOf)
}

// CourseActivity - нормализованная активность студента в рамках одного курса.
type CourseActivity struct {
	// CourseID - идентификатор курса.
	CourseID CourseID

	// Name - человекочитаемое название курса.
	Name string

	// Visits - количество заходов в курс.
	Visits int

	// TimeSpentMillis - суммарное время в курсе.
	TimeSpentMillis int64

	// Quizzes - попытки квизов в курсе.
	Quizzes []QuizAttempt

	// Assignments - сдачи заданий в курсе.
	Assignments []AssignmentSubmission

	// FinalGradeRatio - итоговая оценка за курс как ratio из строки "NN%".
	// nil, если оценки нет или строка не распарсилась.
	FinalGradeRatio *float64
}

// ══════════════════════════════════════════════════════════════════════════════
// NORMALIZED EVENT SET
// ══════════════════════════════════════════════════════════════════════════════

// Set - нормализованный набор событий одного студента.
// Это единица входа для агрегатора признаков: всё, что не прошло
// валидацию на границе нормализации, сюда уже не попадает.
type Set struct {
	// StudentID - студент, которому принадлежат события.
	StudentID StudentID

	// Sessions - рабочие сессии.
	Sessions []StudySession

	// Courses - активность по курсам.
	Courses []CourseActivity

	// Dropped - количество записей, отброшенных нормализатором.
	// Используется только для наблюдаемости, на признаки не влияет.
	Dropped int
}

// IsEmpty возвращает true, если в наборе нет ни одного события.
func (s Set) IsEmpty() bool {
	return len(s.Sessions) == 0 && len(s.Courses) == 0
}

// TotalAssignments возвращает общее число сдач заданий во всех курсах.
func (s Set) TotalAssignments() int {
	total := 0
	for _, c := range s.Courses {
		total += len(c.Assignments)
	}
	return total
}

// TotalQuizAttempts возвращает общее число попыток квизов во всех курсах.
func (s Set) TotalQuizAttempts() int {
	total := 0
	for _, c := range s.Courses {
		total += len(c.Quizzes)
	}
	return total
}
