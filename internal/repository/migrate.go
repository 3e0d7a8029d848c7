package repository

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/core-coin/custos/pkg/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type gooseLogger struct {
	logger *logger.Logger
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.Fatalf(format, v...)
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.logger.SugaredLogger.Infof(format, v...)
}

// Migrate applies all pending schema migrations. dialect is a goose dialect
// name, "postgres" in production.
func Migrate(db *sql.DB, dialect string, log *logger.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger: log})

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %s", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %s", err)
	}
	return nil
}
