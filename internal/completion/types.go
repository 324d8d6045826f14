package completion

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Achievement codes.
const (
	AchievementFirstGame    = "first_game"
	AchievementFirstWin     = "first_win"
	AchievementWins10       = "wins_10"
	AchievementWins50       = "wins_50"
	AchievementPerfectScore = "perfect_score"
	AchievementLevel5       = "level_5"
	AchievementLevel10      = "level_10"
)

// AnswerBreakdown is one graded answer as stored with the result.
type AnswerBreakdown struct {
	QuestionID  string `json:"question_id"`
	Answer      string `json:"answer"`
	IsCorrect   bool   `json:"is_correct"`
	Points      int    `json:"points"`
	TimeSpentMs int64  `json:"time_spent_ms"`
}

// Input is the snapshot of a finished session handed to the coordinator.
type Input struct {
	SessionID      uuid.UUID
	UserID         uuid.UUID
	QuizID         uuid.UUID
	Score          int
	CorrectCount   int
	TotalQuestions int
	PassingScore   int
	Answers        []AnswerBreakdown
	StartedAt      time.Time
	CompletedAt    time.Time
}

// Result is the persisted outcome of a session.
type Result struct {
	ID             uuid.UUID         `json:"result_id"`
	SessionID      uuid.UUID         `json:"session_id"`
	UserID         uuid.UUID         `json:"user_id"`
	QuizID         uuid.UUID         `json:"quiz_id"`
	Score          int               `json:"score"`
	CorrectCount   int               `json:"correct_count"`
	TotalQuestions int               `json:"total_questions"`
	Percentage     int               `json:"percentage"`
	Passed         bool              `json:"passed"`
	Answers        []AnswerBreakdown `json:"answers"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	CompletedAt    time.Time         `json:"completed_at"`
	Achievements   []string          `json:"achievements,omitempty"`
	Progress       *Progress         `json:"progress,omitempty"`
}

// Progress is a player's lifetime progression.
type Progress struct {
	GamesPlayed   int       `json:"games_played"`
	GamesWon      int       `json:"games_won"`
	Experience    int       `json:"experience"`
	TotalPoints   int64     `json:"total_points"`
	Level         int       `json:"level"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	LastPlayedAt  time.Time `json:"last_played_at"`
}

// ProgressFunc derives the next progression and the newly unlocked
// achievements from the locked current row and the codes already owned.
type ProgressFunc func(current Progress, owned []string) (Progress, []string)

// Saved is what the repository reports back after a save.
type Saved struct {
	Result    Result
	Progress  Progress
	Unlocked  []string
	Duplicate bool // a result for the session already existed; nothing was written
}

// Repository persists results and progression atomically.
type Repository interface {
	FindBySession(ctx context.Context, sessionID uuid.UUID) (*Result, error)
	Save(ctx context.Context, result Result, advance ProgressFunc) (Saved, error)
}

// Notifier delivers achievement announcements.
type Notifier interface {
	AnnounceAchievements(ctx context.Context, userID uuid.UUID, codes []string)
}

// CacheInvalidator drops cached leaderboard pages for a quiz.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, quizID uuid.UUID) error
}
