package scoring

import (
	"math"
	"strings"

	"github.com/gokatarajesh/quiz-live/internal/quiz"
)

// Config holds configurable scoring constants.
type Config struct {
	DefaultPoints int // used when a question carries no point value; default 10
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{DefaultPoints: 10}
}

// Outcome is the grade of a single answer.
type Outcome struct {
	IsCorrect bool `json:"is_correct"`
	Points    int  `json:"points"`
}

// Engine grades answers. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	config Config
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config Config) *Engine {
	if config.DefaultPoints <= 0 {
		config.DefaultPoints = DefaultConfig().DefaultPoints
	}
	return &Engine{config: config}
}

// Grade evaluates answer against q.
// Formula for a correct answer: base * (0.5 + 0.5 * remaining/limit)
// - a correct answer always earns at least half of base
// - full base when answered instantly
// - limit of 0 disables the bonus and awards full base
func (e *Engine) Grade(q quiz.Question, answer string, timeSpentSeconds float64) Outcome {
	if !IsCorrect(q, answer) {
		return Outcome{}
	}

	base := q.Points
	if base <= 0 {
		base = e.config.DefaultPoints
	}

	points := math.Round(float64(base) * TimeFactor(q.TimeLimitSeconds, timeSpentSeconds))
	return Outcome{IsCorrect: true, Points: int(points)}
}

// TimeFactor returns the credit multiplier in [0.5, 1] for an answer given
// after spent seconds on a question limited to limit seconds.
func TimeFactor(limit int, spent float64) float64 {
	if limit <= 0 {
		return 1
	}
	if spent < 0 {
		spent = 0
	}
	remaining := (float64(limit) - spent) / float64(limit)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > 1 {
		remaining = 1
	}
	return 0.5 + 0.5*remaining
}

// IsCorrect reports whether answer matches the question's key. Empty answers
// are never correct.
func IsCorrect(q quiz.Question, answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}

	switch q.Type {
	case quiz.TypeFreeText:
		for _, accepted := range q.AcceptedAnswers {
			accepted = strings.TrimSpace(accepted)
			if q.CaseSensitive {
				if accepted == answer {
					return true
				}
				continue
			}
			if strings.EqualFold(accepted, answer) {
				return true
			}
		}
		return false
	default:
		return q.CorrectOptionID != "" && answer == q.CorrectOptionID
	}
}
