package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-live/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-live/internal/metrics"
	"github.com/gokatarajesh/quiz-live/internal/session"
)

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg).SessionStarted()

	srv := httptest.NewServer(NewRouter(zerolog.Nop(), Routes{Gatherer: reg}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPingReportsFailingDependency(t *testing.T) {
	healthy := PingFunc(func(context.Context) error { return nil })
	broken := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	NewRouter(zerolog.Nop(), Routes{Deps: []Pinger{healthy}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewRouter(zerolog.Nop(), Routes{Deps: []Pinger{healthy, broken}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream_error")
}

func TestSessionRoutesRequireAuth(t *testing.T) {
	tokens := jwt.NewManager(jwt.TokenConfig{Secret: []byte("secret")})
	sessions := session.NewHTTPHandlers(nil, zerolog.Nop())
	router := NewRouter(zerolog.Nop(), Routes{Sessions: sessions, Tokens: tokens})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")
}
