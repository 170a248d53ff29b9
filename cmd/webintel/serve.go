package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/website-intel/internal/application"
	appauth "github.com/bryanwahyu/website-intel/internal/application/auth"
	appscans "github.com/bryanwahyu/website-intel/internal/application/scans"
	"github.com/bryanwahyu/website-intel/internal/config"
	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
	"github.com/bryanwahyu/website-intel/internal/domain/session"
	"github.com/bryanwahyu/website-intel/internal/infra/backend"
	"github.com/bryanwahyu/website-intel/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/website-intel/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/website-intel/internal/infra/db/postgres"
	"github.com/bryanwahyu/website-intel/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/website-intel/internal/infra/storage"
	"github.com/bryanwahyu/website-intel/internal/middleware"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

// schemaRepository is a SQL-backed session store that can create its table.
type schemaRepository interface {
	session.Repository
	EnsureSchema(ctx context.Context) error
}

// openSessions picks the session store from sessions.driver.
func openSessions(ctx context.Context, cfg *config.Config) (session.Repository, func(), error) {
	var repo schemaRepository
	var closeFn func()

	switch cfg.Sessions.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect error: %w", err)
		}
		repo, closeFn = mysqlp.NewSessionRepository(db), func() { db.Close() }
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect error: %w", err)
		}
		repo, closeFn = pgp.NewSessionRepository(db), func() { db.Close() }
	default:
		return memory.NewSessionRepository(), func() {}, nil
	}

	// pastikan tabel sesi ada
	if err := repo.EnsureSchema(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("session schema: %w", err)
	}
	return repo, closeFn, nil
}

// pruneSessions drops expired in-memory sessions until ctx is done.
func pruneSessions(ctx context.Context, repo *memory.SessionRepository, maxAge time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := repo.Prune(now.Add(-maxAge)); n > 0 {
				logger.Debug("pruned sessions", "count", n)
			}
		}
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	// session store
	repo, closeRepo, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()
	if mem, ok := repo.(*memory.SessionRepository); ok {
		go pruneSessions(ctx, mem, cfg.Server.SessionMaxAge, logger)
	}

	// backend API
	client, err := backend.NewClient(cfg.Backend.BaseURL, backend.WithLogger(logger))
	if err != nil {
		return err
	}

	checkers := map[string]middleware.HealthChecker{
		"backend":  client,
		"sessions": middleware.CheckFunc(repo.Ping),
	}

	// init minio (optional)
	var archive domain.ExportArchive
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx, minioStore.Options{
			Endpoint:   cfg.Minio.Endpoint,
			Region:     cfg.Minio.Region,
			Bucket:     cfg.Minio.BucketName,
			AccessKey:  cfg.Minio.AccessKey,
			SecretKey:  cfg.Minio.SecretKey,
			UseSSL:     cfg.Minio.UseSSL,
			Prefix:     cfg.Minio.Prefix,
			LinkExpiry: cfg.Minio.LinkExpiry,
		})
		if err != nil {
			return fmt.Errorf("minio init error: %w", err)
		}
		archive = store
		checkers["archive"] = store
	}

	// init services
	scansSvc := appscans.NewService(client, appscans.Options{
		Archive:  archive,
		Logger:   logger,
		Observer: middleware.SubmissionMetrics{},
		PageSize: cfg.Backend.PageSize,
	})
	defer scansSvc.Close()

	authSvc := &appauth.Service{
		Repo:    repo,
		Auth:    client,
		Clock:   application.SystemClock{},
		Logger:  logger,
		Discard: scansSvc,
	}
	client.SetUnauthorizedHook(authSvc.Unauthorized)

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate)
	defer limiter.Stop()

	// init router
	handler := httpserver.NewRouter(scansSvc, authSvc, httpserver.Options{
		Logger:       logger,
		Limiter:      limiter,
		CORSOrigins:  cfg.Server.CORSOrigins,
		CookieSecure: cfg.Server.CookieSecure,
		Checkers:     checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "backend", client.BaseURL(), "sessions", cfg.Sessions.Driver, "archive", archive != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// graceful shutdown
	logger.Info("shutting down server...")
	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	return nil
}
