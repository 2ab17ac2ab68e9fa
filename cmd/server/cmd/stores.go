package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"portfolio/backend/internal/config"
	domain "portfolio/backend/internal/domain/auth"
	"portfolio/backend/internal/infrastructure/postgres"
	"portfolio/backend/internal/infrastructure/sqlite"
)

// openUserStore returns the credential store selected by configuration:
// PostgreSQL when a database URL is present, the embedded SQLite file otherwise.
func openUserStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (domain.UserRepository, func() error, error) {
	if cfg.DatabaseURL != "" {
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Info("credential store ready", "driver", "postgres")
		return postgres.NewUserRepository(db.Pool), db.Close, nil
	}

	if err := ensureParentDir(cfg.SQLitePath); err != nil {
		return nil, nil, err
	}
	store, err := sqlite.New(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	logger.Info("credential store ready", "driver", "sqlite", "path", cfg.SQLitePath)
	return store, store.Close, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
