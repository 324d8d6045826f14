package store

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	UserID      pgtype.UUID        `json:"user_id"`
	DisplayName string             `json:"display_name"`
	AvatarUrl   pgtype.Text        `json:"avatar_url"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type UserProgress struct {
	UserID        pgtype.UUID        `json:"user_id"`
	GamesPlayed   int32              `json:"games_played"`
	GamesWon      int32              `json:"games_won"`
	Experience    int32              `json:"experience"`
	TotalPoints   int64              `json:"total_points"`
	Level         int32              `json:"level"`
	CurrentStreak int32              `json:"current_streak"`
	LongestStreak int32              `json:"longest_streak"`
	LastPlayedAt  pgtype.Timestamptz `json:"last_played_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type Quiz struct {
	QuizID           pgtype.UUID        `json:"quiz_id"`
	Title            string             `json:"title"`
	Published        bool               `json:"published"`
	PassingScore     int32              `json:"passing_score"`
	TimeLimitSeconds int32              `json:"time_limit_seconds"`
	RandomOrder      bool               `json:"random_order"`
	AllowRetake      bool               `json:"allow_retake"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

type Question struct {
	QuestionID       pgtype.UUID `json:"question_id"`
	QuizID           pgtype.UUID `json:"quiz_id"`
	Position         int32       `json:"position"`
	QuestionType     string      `json:"question_type"`
	Prompt           string      `json:"prompt"`
	Options          []byte      `json:"options"`
	CorrectOptionID  pgtype.Text `json:"correct_option_id"`
	AcceptedAnswers  []string    `json:"accepted_answers"`
	CaseSensitive    bool        `json:"case_sensitive"`
	Points           int32       `json:"points"`
	TimeLimitSeconds int32       `json:"time_limit_seconds"`
}

type QuizResult struct {
	ResultID       pgtype.UUID        `json:"result_id"`
	SessionID      pgtype.UUID        `json:"session_id"`
	UserID         pgtype.UUID        `json:"user_id"`
	QuizID         pgtype.UUID        `json:"quiz_id"`
	Score          int32              `json:"score"`
	CorrectCount   int32              `json:"correct_count"`
	TotalQuestions int32              `json:"total_questions"`
	Percentage     int32              `json:"percentage"`
	Passed         bool               `json:"passed"`
	Answers        []byte             `json:"answers"`
	ElapsedSeconds int32              `json:"elapsed_seconds"`
	CompletedAt    pgtype.Timestamptz `json:"completed_at"`
}
