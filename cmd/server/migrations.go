package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dudoxx/dudoxx-api/internal/platform/postgres"
)

var migrationCommands = map[string]bool{
	"up":        true,
	"up-by-one": true,
	"down":      true,
	"status":    true,
	"version":   true,
	"reset":     true,
	"redo":      true,
}

// handleMigrations runs a goose command against the embedded migrations.
// It is called from run when -migrate is set and at startup when
// database.auto_migrate is enabled.
func handleMigrations(ctx context.Context, db *sql.DB, command string, args []string, logger *slog.Logger) error {
	if !migrationCommands[command] {
		return fmt.Errorf("unsupported migration command %q", command)
	}

	logger.Info("executing migrations", "command", command)
	if err := postgres.RunMigrations(ctx, db, command, logger, args...); err != nil {
		return err
	}
	logger.Info("migrations finished", "command", command)
	return nil
}
