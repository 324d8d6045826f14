package leaderboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	"github.com/gokatarajesh/quiz-live/internal/quiz"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// QuizLookup resolves published quizzes. *quiz.Loader implements it.
type QuizLookup interface {
	Load(ctx context.Context, quizID uuid.UUID) (quiz.Quiz, error)
}

// HTTPHandler exposes REST endpoints for leaderboard queries.
type HTTPHandler struct {
	svc     *Service
	quizzes QuizLookup
	logger  zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler. quizzes may be nil,
// in which case unknown quizzes simply rank nobody.
func NewHTTPHandler(svc *Service, quizzes QuizLookup, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:     svc,
		quizzes: quizzes,
		logger:  logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

type response struct {
	QuizID      string    `json:"quiz_id"`
	Timeframe   string    `json:"timeframe"`
	Entries     []Entry   `json:"entries"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// HandleGet responds with the ranked passed results for a quiz.
// Route: GET /v1/quizzes/{quizId}/leaderboard?limit=10&timeframe=week
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	quizID, err := uuid.Parse(r.PathValue("quizId"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidQuizID, "quiz id must be a UUID")
		return
	}

	timeframe, err := ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if h.quizzes != nil {
		if _, err := h.quizzes.Load(r.Context(), quizID); err != nil {
			h.respondError(w, err, quizID)
			return
		}
	}

	entries, err := h.svc.Top(r.Context(), quizID, timeframe, limit)
	if err != nil {
		h.respondError(w, err, quizID)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, response{
		QuizID:      quizID.String(),
		Timeframe:   timeframe,
		Entries:     entries,
		RetrievedAt: time.Now().UTC(),
	})
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, err error, quizID uuid.UUID) {
	if apperror.KindOf(err) == apperror.KindInternal {
		h.logger.Error().Err(err).Str("quiz_id", quizID.String()).Msg("leaderboard fetch failed")
	}
	httperrors.RespondAppError(w, err)
}
