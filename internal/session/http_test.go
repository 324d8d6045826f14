package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-live/internal/auth"
	"github.com/gokatarajesh/quiz-live/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-live/internal/completion"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

func newTestMux(f *fixture, userID uuid.UUID) *http.ServeMux {
	mux := http.NewServeMux()
	protect := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != uuid.Nil {
				r = r.WithContext(auth.WithClaims(r.Context(), &jwt.Claims{UserID: userID}))
			}
			next.ServeHTTP(w, r)
		})
	}
	NewHTTPHandlers(f.svc, zerolog.Nop()).Register(mux, protect)
	return mux
}

func do(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHTTPSessionFlow(t *testing.T) {
	q := twoQuestionQuiz()
	f := newFixture(t, q)
	mux := newTestMux(f, uuid.New())

	rec := do(t, mux, http.MethodPost, "/v1/sessions", `{"quiz_id":"`+q.ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.NotContains(t, rec.Body.String(), "correct_option_id")
	var started StartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&started))
	require.Len(t, started.Questions, 2)

	base := "/v1/sessions/" + started.SessionID
	rec = do(t, mux, http.MethodPost, base+"/answers",
		`{"question_id":"`+started.Questions[0].ID+`","answer":"a","time_spent":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var answered AnswerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&answered))
	assert.True(t, answered.IsCorrect)
	assert.Equal(t, 10, answered.Score)

	rec = do(t, mux, http.MethodPost, base+"/answers",
		`{"question_id":"`+started.Questions[0].ID+`","answer":"a","time_spent":0}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), httperrors.ErrCodeAlreadyAnswered)

	rec = do(t, mux, http.MethodPost, base+"/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result completion.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 50, result.Percentage)

	rec = do(t, mux, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), StatusCompleted)
}

func TestHTTPSessionErrors(t *testing.T) {
	q := twoQuestionQuiz()
	f := newFixture(t, q)

	tests := []struct {
		name   string
		user   uuid.UUID
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unauthenticated", uuid.Nil, http.MethodPost, "/v1/sessions", `{}`, http.StatusUnauthorized, httperrors.ErrCodeAuthenticationRequired},
		{"bad json", uuid.New(), http.MethodPost, "/v1/sessions", `{`, http.StatusBadRequest, httperrors.ErrCodeInvalidRequest},
		{"bad quiz id", uuid.New(), http.MethodPost, "/v1/sessions", `{"quiz_id":"x"}`, http.StatusBadRequest, httperrors.ErrCodeInvalidQuizID},
		{"unknown quiz", uuid.New(), http.MethodPost, "/v1/sessions", `{"quiz_id":"` + uuid.NewString() + `"}`, http.StatusNotFound, httperrors.ErrCodeQuizNotFound},
		{"bad session id", uuid.New(), http.MethodGet, "/v1/sessions/nope", "", http.StatusBadRequest, httperrors.ErrCodeInvalidSessionID},
		{"unknown session", uuid.New(), http.MethodDelete, "/v1/sessions/" + uuid.NewString(), "", http.StatusNotFound, httperrors.ErrCodeSessionNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, newTestMux(f, tc.user), tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code)

			var body httperrors.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Error)
		})
	}
}

func TestHTTPAbandon(t *testing.T) {
	q := twoQuestionQuiz()
	f := newFixture(t, q)
	userID := uuid.New()
	_, sess := start(t, f, userID, q.ID)

	rec := do(t, newTestMux(f, uuid.New()), http.MethodDelete, "/v1/sessions/"+sess.ID.String(), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, newTestMux(f, userID), http.MethodDelete, "/v1/sessions/"+sess.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.svc.ActiveCount())
}
