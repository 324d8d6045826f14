package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-live"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Security    Security
	Session     Session
	Scoring     Scoring
	Room        Room
	Challenge   Challenge
	Completion  Completion
	Leaderboard Leaderboard
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// ConnString renders a keyword/value connection string for a single pgx
// connection.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// DSN is ConnString plus pgxpool sizing.
func (p Postgres) DSN() string {
	return fmt.Sprintf("%s pool_max_conns=%d", p.ConnString(), p.MaxConns)
}

// Redis holds cache configuration.
type Redis struct {
	Addr     string        `env:"REDIS_ADDR,notEmpty"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize int           `env:"REDIS_POOL_SIZE" envDefault:"20"`
	QuizTTL  time.Duration `env:"QUIZ_CACHE_TTL" envDefault:"5m"`
}

// Security stores secrets for verifying identities.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
}

// Session governs the single-player session store and its reaper.
type Session struct {
	IdleTimeout        time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	IdleGrace          time.Duration `env:"SESSION_IDLE_GRACE" envDefault:"2m"`
	CompletedRetention time.Duration `env:"SESSION_COMPLETED_RETENTION" envDefault:"5m"`
	ReapInterval       time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"30s"`
	MaxAnswerTime      time.Duration `env:"SESSION_MAX_ANSWER_TIME" envDefault:"3h"`
}

// Scoring groups grading defaults.
type Scoring struct {
	DefaultPoints int `env:"SCORING_DEFAULT_POINTS" envDefault:"10"`
}

// Room governs multiplayer lobbies.
type Room struct {
	MaxPlayers   int           `env:"ROOM_MAX_PLAYERS" envDefault:"10"`
	IdleTimeout  time.Duration `env:"ROOM_IDLE_TIMEOUT" envDefault:"30m"`
	ReapInterval time.Duration `env:"ROOM_REAP_INTERVAL" envDefault:"1m"`
}

// Challenge governs duel invitations.
type Challenge struct {
	TTL           time.Duration `env:"CHALLENGE_TTL" envDefault:"5m"`
	SweepInterval time.Duration `env:"CHALLENGE_SWEEP_INTERVAL" envDefault:"30s"`
}

// Completion governs result persistence retries.
type Completion struct {
	MaxAttempts int           `env:"COMPLETION_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay  time.Duration `env:"COMPLETION_RETRY_DELAY" envDefault:"200ms"`
}

// Leaderboard governs leaderboard queries and caching.
type Leaderboard struct {
	CacheTTL     time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"30s"`
	DefaultLimit int           `env:"LEADERBOARD_DEFAULT_LIMIT" envDefault:"10"`
	MaxLimit     int           `env:"LEADERBOARD_MAX_LIMIT" envDefault:"100"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Room.MaxPlayers < 2 {
		return nil, fmt.Errorf("ROOM_MAX_PLAYERS must be at least 2, got %d", cfg.Room.MaxPlayers)
	}
	if cfg.Completion.MaxAttempts < 1 {
		return nil, fmt.Errorf("COMPLETION_MAX_ATTEMPTS must be positive, got %d", cfg.Completion.MaxAttempts)
	}
	return cfg, nil
}

// LoadPostgres parses only the database settings, for tools such as the
// migrator that do not need the rest of the runtime config.
func LoadPostgres() (Postgres, error) {
	var pg Postgres
	if err := env.ParseWithOptions(&pg, env.Options{RequiredIfNoDef: true}); err != nil {
		return Postgres{}, fmt.Errorf("parse postgres config: %w", err)
	}
	return pg, nil
}
