package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	p4adapter "github.com/ericfisherdev/p4panel/internal/adapter/driven/p4"
	sqliteadapter "github.com/ericfisherdev/p4panel/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/p4panel/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/p4panel/internal/adapter/driving/web"
	"github.com/ericfisherdev/p4panel/internal/application"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	// 1. Load configuration.
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"p4_bin", cfg.P4Bin,
		"command_timeout", cfg.CommandTimeout,
		"default_limit", cfg.DefaultLimit,
		"credential_persistence", cfg.HasSecretKey(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and run migrations.
	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB(db, logger)

	// 4. Wire adapters and services.
	credStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	if !cfg.HasSecretKey() {
		logger.Warn("P4PANEL_SECRET_KEY not set, saving a default credential is disabled")
	}

	runner := p4adapter.NewRunner(cfg.P4Bin, cfg.CommandTimeout, logger)
	login := application.NewLoginFlow(runner, logger)
	p4Svc := application.NewPerforceService(runner, credStore, login, cfg.DefaultLimit, logger)
	credSvc := application.NewCredentialService(credStore, login, logger)

	// 5. Register API and browser routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(p4Svc, credSvc, logger))
	webhandler.RegisterRoutes(mux)

	handler := httphandler.ApplyMiddleware(mux, logger)

	// No WriteTimeout: each p4 command is bounded by its request context
	// and P4PANEL_COMMAND_TIMEOUT. Requests inherit ctx so shutdown stops
	// running commands.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 6. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	// 7. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
