package session

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	"github.com/gokatarajesh/quiz-live/internal/auth"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for single-player sessions.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "session_http").Logger(),
	}
}

// Register mounts the session routes. protect wraps every route with
// authentication.
func (h *HTTPHandlers) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("POST /v1/sessions", protect(http.HandlerFunc(h.Start)))
	mux.Handle("GET /v1/sessions/{id}", protect(http.HandlerFunc(h.Get)))
	mux.Handle("POST /v1/sessions/{id}/answers", protect(http.HandlerFunc(h.SubmitAnswer)))
	mux.Handle("POST /v1/sessions/{id}/complete", protect(http.HandlerFunc(h.Complete)))
	mux.Handle("DELETE /v1/sessions/{id}", protect(http.HandlerFunc(h.Abandon)))
}

type startRequest struct {
	QuizID string `json:"quiz_id"`
}

type answerRequest struct {
	QuestionID string  `json:"question_id"`
	Answer     string  `json:"answer"`
	TimeSpent  float64 `json:"time_spent"`
}

// Start handles POST /v1/sessions
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidQuizID, "quiz_id must be a UUID", "quiz_id")
		return
	}

	resp, err := h.service.Start(r.Context(), StartRequest{UserID: claims.UserID, QuizID: quizID})
	if err != nil {
		h.respondServiceError(w, err, "start session")
		return
	}
	httperrors.RespondJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/sessions/{id}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), sessionID, userID)
	if err != nil {
		h.respondServiceError(w, err, "get session")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, view)
}

// SubmitAnswer handles POST /v1/sessions/{id}/answers
func (h *HTTPHandlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "question_id must be a UUID", "question_id")
		return
	}

	resp, err := h.service.SubmitAnswer(r.Context(), SubmitRequest{
		SessionID:        sessionID,
		UserID:           userID,
		QuestionID:       questionID,
		Answer:           req.Answer,
		TimeSpentSeconds: req.TimeSpent,
	})
	if err != nil {
		h.respondServiceError(w, err, "submit answer")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, resp)
}

// Complete handles POST /v1/sessions/{id}/complete
func (h *HTTPHandlers) Complete(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}
	result, err := h.service.Complete(r.Context(), sessionID, userID)
	if err != nil {
		h.respondServiceError(w, err, "complete session")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, result)
}

// Abandon handles DELETE /v1/sessions/{id}
func (h *HTTPHandlers) Abandon(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}
	if err := h.service.Abandon(r.Context(), sessionID, userID); err != nil {
		h.respondServiceError(w, err, "abandon session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandlers) sessionRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidSessionID, "session id must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return claims.UserID, sessionID, true
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, err error, op string) {
	if apperror.KindOf(err) == apperror.KindInternal {
		h.logger.Error().Err(err).Str("op", op).Msg("session request failed")
	}
	httperrors.RespondAppError(w, err)
}
