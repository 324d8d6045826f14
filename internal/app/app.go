package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/quiz-live/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-live/internal/challenge"
	"github.com/gokatarajesh/quiz-live/internal/completion"
	"github.com/gokatarajesh/quiz-live/internal/config"
	"github.com/gokatarajesh/quiz-live/internal/db/repository"
	"github.com/gokatarajesh/quiz-live/internal/db/store"
	"github.com/gokatarajesh/quiz-live/internal/leaderboard"
	"github.com/gokatarajesh/quiz-live/internal/logging"
	"github.com/gokatarajesh/quiz-live/internal/metrics"
	"github.com/gokatarajesh/quiz-live/internal/presence"
	"github.com/gokatarajesh/quiz-live/internal/quiz"
	"github.com/gokatarajesh/quiz-live/internal/realtime"
	"github.com/gokatarajesh/quiz-live/internal/room"
	"github.com/gokatarajesh/quiz-live/internal/scoring"
	"github.com/gokatarajesh/quiz-live/internal/server"
	"github.com/gokatarajesh/quiz-live/internal/session"
	"github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

// worker is a background loop that runs until its context is canceled.
type worker interface {
	Run(ctx context.Context) error
}

// Application aggregates shared infrastructure (DB, cache, HTTP server) and
// the background loops of the engine.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	workers map[string]worker
}

// New bootstraps logger, Postgres, Redis, the engine components and the HTTP
// server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	db := store.NewStore(pool)
	userRepo := repository.NewUserRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	resultRepo := repository.NewResultRepository(db, db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	})

	// The hub is the notifier for every component that pushes events, so it
	// comes first. Rooms must exist before sessions, which report finishes.
	hub := ws.NewHub(m, logger)
	presenceSvc := presence.NewDispatcher(userRepo, hub, logger)

	leaderboardSvc := leaderboard.NewService(leaderboardRepo, redisClient, leaderboard.ServiceOptions{
		CacheTTL:     cfg.Leaderboard.CacheTTL,
		DefaultLimit: cfg.Leaderboard.DefaultLimit,
		MaxLimit:     cfg.Leaderboard.MaxLimit,
	}, logger)

	completer := completion.NewCoordinator(resultRepo, presenceSvc, leaderboardSvc, completion.Options{
		MaxAttempts: uint64(cfg.Completion.MaxAttempts),
		RetryDelay:  cfg.Completion.RetryDelay,
	}, logger)

	rooms := room.NewManager(hub, m, room.Options{
		MaxPlayers:  cfg.Room.MaxPlayers,
		IdleTimeout: cfg.Room.IdleTimeout,
	}, logger)

	quizzes := quiz.NewLoader(quizRepo, quiz.NewCache(redisClient, cfg.Redis.QuizTTL), logger)
	sessions := session.NewService(
		session.NewStore(),
		quizzes,
		scoring.NewEngine(scoring.Config{DefaultPoints: cfg.Scoring.DefaultPoints}),
		completer,
		rooms,
		m,
		session.Options{
			IdleTimeout:        cfg.Session.IdleTimeout,
			IdleGrace:          cfg.Session.IdleGrace,
			CompletedRetention: cfg.Session.CompletedRetention,
			MaxAnswerTime:      cfg.Session.MaxAnswerTime,
		},
		logger,
	)

	broker := challenge.NewBroker(hub, hub, rooms, m, challenge.Options{TTL: cfg.Challenge.TTL}, logger)

	realtimeHandler := realtime.NewHandler(realtime.Deps{
		Hub:        hub,
		Sessions:   sessions,
		Rooms:      rooms,
		Challenges: broker,
		Presence:   presenceSvc,
		Tokens:     tokens,
		Metrics:    m,
	}, logger)

	apiServer := server.NewHTTPServer(cfg, logger, server.Routes{
		Sessions:    session.NewHTTPHandlers(sessions, logger),
		Leaderboard: leaderboard.NewHTTPHandler(leaderboardSvc, quizzes, logger),
		Realtime:    realtimeHandler,
		Tokens:      tokens,
		Gatherer:    registry,
		Deps: []server.Pinger{
			db,
			server.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},
	})

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
		workers: map[string]worker{
			"session_reaper":          session.NewReaper(sessions, cfg.Session.ReapInterval, logger),
			"room_reaper":             room.NewReaper(rooms, cfg.Room.ReapInterval, logger),
			"challenge_sweeper":       challenge.NewSweeper(broker, cfg.Challenge.SweepInterval, logger),
			"leaderboard_broadcaster": leaderboard.NewBroadcaster(redisClient, hub, "", logger),
		},
	}, nil
}

// Run starts the HTTP server and background workers and blocks until a
// termination signal, a canceled ctx, or a fatal server error.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	for name, w := range a.workers {
		g.Go(func() error {
			if err := w.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Str("worker", name).Msg("background worker stopped")
			}
			return nil
		})
	}

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.GracefulShutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("http shutdown error")
		}
		return nil
	})

	err := g.Wait()

	a.pool.Close()
	if cerr := a.redis.Close(); cerr != nil {
		a.logger.Error().Err(cerr).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return err
}
