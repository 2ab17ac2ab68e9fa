package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"portfolio/backend/internal/config"
	"portfolio/backend/internal/httpserver"
	"portfolio/backend/internal/infrastructure/denylist"
	"portfolio/backend/internal/infrastructure/filestore"
	"portfolio/backend/internal/infrastructure/password"
	"portfolio/backend/internal/infrastructure/token"
	authusecase "portfolio/backend/internal/usecase/auth"
	uploadusecase "portfolio/backend/internal/usecase/upload"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneInterval   = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger := newLogger(cfg)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	users, closeUsers, err := openUserStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeUsers()

	if err := ensureParentDir(cfg.DenylistPath); err != nil {
		return err
	}
	revoked, err := denylist.Open(cfg.DenylistPath)
	if err != nil {
		return fmt.Errorf("failed to open denylist: %w", err)
	}
	defer revoked.Close()

	files, err := filestore.NewLocal(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to prepare upload dir: %w", err)
	}

	tokenManager, err := token.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	authService := authusecase.NewService(users, tokenManager, password.NewBcryptHasher(), revoked, cfg.JWTExpiry)
	uploads := uploadusecase.NewManager(files, cfg.UploadURLPrefix, cfg.UploadMaxBytes)

	server := httpserver.NewServer(cfg, logger, authService, uploads)

	go pruneDenylist(ctx, revoked, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			"addr", server.Addr(),
			"env", cfg.Environment,
			"upload_dir", files.Root(),
		)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("graceful shutdown completed")
	return nil
}

func pruneDenylist(ctx context.Context, revoked *denylist.Store, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := revoked.Prune(ctx)
			if err != nil {
				logger.Error("prune denylist", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("pruned denylist", "removed", n)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
