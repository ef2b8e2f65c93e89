package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dressguard/dressguard/internal/config"
	"github.com/dressguard/dressguard/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "Migration action: up, down, steps, status, force")
	steps := flag.Int("steps", 0, "Migrations to apply for steps (negative rolls back)")
	version := flag.Int("version", -1, "Version to record for force")
	dbName := flag.String("db", "", "Database name recorded by the migration driver (default DATABASE_NAME)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HistoryEnabled() {
		return errors.New("DATABASE_URL is required")
	}

	logger := cfg.NewLogger()
	if *dbName == "" {
		*dbName = cfg.DatabaseName
	}

	db, err := database.OpenSQL(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	migrator, err := database.NewMigrator(db, *dbName, logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	switch *action {
	case "up":
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
	case "down":
		if err := migrator.Down(); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
	case "steps":
		if err := migrator.Steps(*steps); err != nil {
			return err
		}
	case "status":
		status, err := migrator.Status()
		if err != nil {
			return err
		}
		logger.Info("migration status",
			slog.Uint64("version", uint64(status.Version)),
			slog.Uint64("latest", uint64(status.Latest)),
			slog.Bool("dirty", status.Dirty),
			slog.Bool("pending", status.Pending()),
		)
		return nil
	case "force":
		if *version < 0 {
			return errors.New("version flag is required for force action")
		}
		if err := migrator.Force(*version); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}
	default:
		return fmt.Errorf("invalid action: %s (use: up, down, steps, status, force)", *action)
	}

	current, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	logger.Info("migration finished",
		slog.String("action", *action),
		slog.Uint64("version", uint64(current)),
		slog.Bool("dirty", dirty),
	)
	return nil
}
