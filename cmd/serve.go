package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"ELDEREASE_BACK-END/internal/config"
	"ELDEREASE_BACK-END/internal/handlers"
	"ELDEREASE_BACK-END/internal/logging"
	"ELDEREASE_BACK-END/internal/metrics"
	"ELDEREASE_BACK-END/internal/middleware"
	"ELDEREASE_BACK-END/internal/routes"
	"ELDEREASE_BACK-END/internal/security"
	"ELDEREASE_BACK-END/internal/services"
	"ELDEREASE_BACK-END/internal/store"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())

	// Wait for SIGINT/SIGTERM to shut down gracefully
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	handler, err := buildHandler(cfg, st, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.Server.Port, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SERVER_SHUTDOWN_FAILED").Wrap(err)
	}
	logger.Info(shutdownCtx, "server stopped")
	return nil
}

// openStore opens the configured credential store. The returned func
// releases its resources.
func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (store.CredentialStore, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn(ctx, "using in-memory credential store")
		return store.NewMemoryStore(), func() {}, nil
	}

	pool, err := store.NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}

	if cfg.Database.AutoMigrate {
		db := stdlib.OpenDBFromPool(pool)
		err := store.Migrate(ctx, db)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return nil, nil, oops.Code("MIGRATION_FAILED").With("operation", "auto-migrate").Wrap(err)
		}
		logger.Info(ctx, "database migrations applied")
	}

	st := store.NewPostgresStore(pool, store.PostgresOptions{
		QueryTimeout: cfg.Database.QueryTimeout,
		MaxRetries:   cfg.Store.MaxRetries,
		RetryBackoff: cfg.Store.RetryBackoff,
	})
	return st, pool.Close, nil
}

// buildHandler wires services and handlers over st.
func buildHandler(cfg *config.Config, st store.CredentialStore, logger logging.Logger) (http.Handler, error) {
	m := metrics.New()
	tokens := middleware.NewTokenIssuer(cfg.JWT)
	hasher := security.NewBcryptHasher(cfg.Hash.Cost, cfg.Hash.MaxConcurrent)

	svc, err := services.NewAuthService(st, hasher, tokens,
		services.WithLogger(logger.With("component", "auth")),
		services.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}

	h := routes.Handlers{
		Auth:    handlers.NewAuthHandler(svc, logger),
		Health:  handlers.NewHealthHandler(st, logger),
		Tokens:  tokens,
		Metrics: m,
	}
	if cfg.IsGoogleOAuthConfigured() {
		h.Google = handlers.NewGoogleAuthHandler(svc,
			handlers.NewGoogleProvider(cfg.GoogleOAuth),
			middleware.NewStateSigner(cfg.JWT),
			logger,
		)
	}

	return routes.NewHandler(h, cfg.CORS), nil
}
