package migration

import (
	"database/sql"
	"embed"

	"github.com/rs/zerolog"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// Embed SQL files from the local migrations folder
//
//go:embed migrations/*.sql
var embeddedMigrations embed.FS

func RunMigrations(dbUrl string, logger zerolog.Logger) {
	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()

	// Ensure the crm schema exists before running migrations
	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS crm"); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create schema crm")
	}

	if _, err := db.Exec("SET search_path TO crm"); err != nil {
		logger.Fatal().Err(err).Msg("Failed to set search path")
	}

	goose.SetBaseFS(embeddedMigrations)
	goose.SetTableName("crm.goose_db_version")

	if err := goose.Up(db, "migrations"); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Info().Msg("Migrations completed successfully")
}

// GooseAdapter routes goose's log output through zerolog.
type GooseAdapter struct {
	logger zerolog.Logger
}

func NewGooseAdapter(logger zerolog.Logger) *GooseAdapter {
	return &GooseAdapter{logger: logger.With().Str("component", "goose").Logger()}
}

func (a *GooseAdapter) Fatalf(format string, v ...interface{}) {
	a.logger.Fatal().Msgf(format, v...)
}

func (a *GooseAdapter) Printf(format string, v ...interface{}) {
	a.logger.Info().Msgf(format, v...)
}
