package quiz

import (
	"github.com/google/uuid"
)

// Question types.
const (
	TypeSingleChoice = "single_choice"
	TypeTrueFalse    = "true_false"
	TypeFreeText     = "free_text"
)

// Option is one selectable answer of a choice question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is the server-side definition, answer key included.
type Question struct {
	ID               uuid.UUID `json:"id"`
	Type             string    `json:"type"`
	Prompt           string    `json:"prompt"`
	Options          []Option  `json:"options,omitempty"`
	CorrectOptionID  string    `json:"correct_option_id,omitempty"`
	AcceptedAnswers  []string  `json:"accepted_answers,omitempty"`
	CaseSensitive    bool      `json:"case_sensitive,omitempty"`
	Points           int       `json:"points"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
	Position         int       `json:"position"`
}

// Quiz is a published quiz with its ordered questions.
type Quiz struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Published        bool       `json:"published"`
	PassingScore     int        `json:"passing_score"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	RandomOrder      bool       `json:"random_order"`
	AllowRetake      bool       `json:"allow_retake"`
	Questions        []Question `json:"questions"`
}

// QuestionView is what clients see: no answer key.
type QuestionView struct {
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Prompt           string   `json:"prompt"`
	Options          []Option `json:"options,omitempty"`
	Points           int      `json:"points"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
}

// View strips the answer key from q.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:               q.ID.String(),
		Type:             q.Type,
		Prompt:           q.Prompt,
		Options:          q.Options,
		Points:           q.Points,
		TimeLimitSeconds: q.TimeLimitSeconds,
	}
}

// Views strips the answer keys from every question.
func Views(questions []Question) []QuestionView {
	out := make([]QuestionView, len(questions))
	for i, q := range questions {
		out[i] = q.View()
	}
	return out
}

// Summary is the pre-game description returned when a player looks at a quiz.
type Summary struct {
	ID               string `json:"quiz_id"`
	Title            string `json:"title"`
	QuestionCount    int    `json:"question_count"`
	PassingScore     int    `json:"passing_score"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
	AllowRetake      bool   `json:"allow_retake"`
}

// Summarize builds the pre-game description of q.
func (q Quiz) Summarize() Summary {
	return Summary{
		ID:               q.ID.String(),
		Title:            q.Title,
		QuestionCount:    len(q.Questions),
		PassingScore:     q.PassingScore,
		TimeLimitSeconds: q.TimeLimitSeconds,
		AllowRetake:      q.AllowRetake,
	}
}
