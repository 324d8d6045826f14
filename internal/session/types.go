package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/quiz-live/internal/completion"
	"github.com/gokatarajesh/quiz-live/internal/quiz"
)

// Session lifecycle states. Transitions only go from active.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

// AnswerRecord is one graded answer. Records are never modified once appended.
type AnswerRecord struct {
	QuestionID    uuid.UUID `json:"question_id"`
	Answer        string    `json:"answer"`
	IsCorrect     bool      `json:"is_correct"`
	PointsAwarded int       `json:"points_awarded"`
	TimeSpentMs   int64     `json:"time_spent_ms"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// Session is one player's in-progress attempt at a quiz.
// CurrentIndex always equals len(Answers).
type Session struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	QuizID           uuid.UUID
	QuizTitle        string
	RoomID           string
	ConnectionID     string
	Questions        []quiz.Question
	PassingScore     int
	TimeLimitSeconds int
	CurrentIndex     int
	Answers          []AnswerRecord
	Score            int
	Status           string
	StartedAt        time.Time
	LastActivityAt   time.Time
	CompletedAt      time.Time
	Result           *completion.Result

	mu sync.Mutex
}

func (s *Session) correctCount() int {
	n := 0
	for _, a := range s.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// StartRequest opens a session.
type StartRequest struct {
	UserID       uuid.UUID
	QuizID       uuid.UUID
	RoomID       string
	ConnectionID string
}

// StartResponse is returned to the player. Questions carry no answer keys.
type StartResponse struct {
	SessionID        string              `json:"session_id"`
	QuizID           string              `json:"quiz_id"`
	Title            string              `json:"title"`
	RoomID           string              `json:"room_id,omitempty"`
	Questions        []quiz.QuestionView `json:"questions"`
	TotalQuestions   int                 `json:"total_questions"`
	TimeLimitSeconds int                 `json:"time_limit_seconds"`
	StartedAt        time.Time           `json:"started_at"`
}

// SubmitRequest carries one answer.
type SubmitRequest struct {
	SessionID        uuid.UUID
	UserID           uuid.UUID
	QuestionID       uuid.UUID
	Answer           string
	TimeSpentSeconds float64
}

// AnswerResponse reports the grade and what comes next.
type AnswerResponse struct {
	IsCorrect    bool               `json:"is_correct"`
	Points       int                `json:"points"`
	Score        int                `json:"score"`
	Answered     int                `json:"answered"`
	Completed    bool               `json:"completed"`
	NextQuestion *quiz.QuestionView `json:"next_question,omitempty"`
	Result       *completion.Result `json:"result,omitempty"`
}

// View is a read-only snapshot of a session for status queries.
type View struct {
	SessionID      string             `json:"session_id"`
	QuizID         string             `json:"quiz_id"`
	Status         string             `json:"status"`
	Score          int                `json:"score"`
	Answered       int                `json:"answered"`
	TotalQuestions int                `json:"total_questions"`
	StartedAt      time.Time          `json:"started_at"`
	Result         *completion.Result `json:"result,omitempty"`
}

// Preview is the pre-game check returned for quiz:join.
type Preview struct {
	quiz.Summary
	Eligible bool `json:"eligible"`
}
