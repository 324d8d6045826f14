package leaderboard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Supported leaderboard timeframes.
const (
	TimeframeAll   = "all"
	TimeframeToday = "today"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

// Entry is one ranked row sent to clients.
type Entry struct {
	Rank           int       `json:"rank"`
	UserID         uuid.UUID `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	Score          int       `json:"score"`
	Percentage     int       `json:"percentage"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Source reads the best passed result per user for a quiz. A zero since
// means no lower bound.
type Source interface {
	Top(ctx context.Context, quizID uuid.UUID, since time.Time, limit int) ([]Entry, error)
}
