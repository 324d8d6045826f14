package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quiz-live/internal/config"
	"github.com/gokatarajesh/quiz-live/internal/db/migrations"
)

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("app", "migrator").Logger()
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}

func newRootCmd() *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:           "migrator",
		Short:         "Apply or inspect the quiz-live database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&table, "table", "goose_db_version", "goose version table")

	cmd.AddCommand(
		migrateCmd("up", "Apply all pending migrations", &table, goose.Up),
		migrateCmd("down", "Roll back the latest migration", &table, goose.Down),
		migrateCmd("status", "Print the status of every migration", &table, goose.Status),
	)
	return cmd
}

func migrateCmd(use, short string, table *string, run func(db *sql.DB, dir string, opts ...goose.OptionsFunc) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			goose.SetBaseFS(migrations.FS)
			goose.SetTableName(*table)
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}

			if err := run(db, "."); err != nil {
				return fmt.Errorf("goose %s: %w", use, err)
			}
			log.Info().Str("command", use).Msg("migration command finished")
			return nil
		},
	}
}

func openDB() (*sql.DB, error) {
	pg, err := config.LoadPostgres()
	if err != nil {
		return nil, err
	}

	// pgx through database/sql, which is what goose drives
	db, err := sql.Open("pgx", pg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", pg.Host).
		Int("port", pg.Port).
		Str("database", pg.Database).
		Msg("connected to database")
	return db, nil
}
