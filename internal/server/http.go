package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/auth"
	"github.com/gokatarajesh/quiz-live/internal/config"
	"github.com/gokatarajesh/quiz-live/internal/leaderboard"
	"github.com/gokatarajesh/quiz-live/internal/logging"
	"github.com/gokatarajesh/quiz-live/internal/session"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Routes collects the handlers mounted on the API server. Nil members are
// skipped.
type Routes struct {
	Sessions    *session.HTTPHandlers
	Leaderboard *leaderboard.HTTPHandler
	Realtime    http.Handler
	Tokens      auth.TokenValidator
	Gatherer    prometheus.Gatherer
	Deps        []Pinger
}

// NewHTTPServer wires health, metrics, REST and WebSocket routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, routes Routes) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewRouter(logger, routes),
	}
}

// NewRouter builds the request multiplexer.
func NewRouter(logger zerolog.Logger, routes Routes) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if routes.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(routes.Gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, routes.Deps); err != nil {
			log := logging.FromContext(ctx)
			log.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if routes.Sessions != nil {
		routes.Sessions.Register(mux, auth.RequireAuth)
	}
	if routes.Leaderboard != nil {
		mux.HandleFunc("GET /v1/quizzes/{quizId}/leaderboard", routes.Leaderboard.HandleGet)
	}
	if routes.Realtime != nil {
		mux.Handle("GET /ws", routes.Realtime)
	}

	var handler http.Handler = mux
	if routes.Tokens != nil {
		handler = auth.AuthMiddleware(routes.Tokens, logger)(handler)
	}
	return handler
}

func pingDependencies(ctx context.Context, deps []Pinger) error {
	for _, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
