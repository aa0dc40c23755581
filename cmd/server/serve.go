package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/prepai/server/internal/agent"
	"github.com/prepai/server/internal/api"
	"github.com/prepai/server/internal/identity"
	"github.com/prepai/server/internal/jobs"
	"github.com/prepai/server/internal/middleware"
	"github.com/prepai/server/internal/retention"
	"github.com/prepai/server/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	rt, err := newRouting(ctx, cfg, logger)
	if err != nil {
		return err
	}

	conversationLogger, err := agent.NewConversationLogger(cfg.ConversationLog, logger)
	if err != nil {
		return fmt.Errorf("initialize conversation logger: %w", err)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	// Initialize handlers.
	issuer := identity.NewIssuer(cfg.JWTSecret, cfg.JWTTTL, repo)
	jobService := jobs.NewService(rt.searcher, cfg.JobsCacheTTL)
	apiHandler := api.NewHandler(api.Deps{
		Repo:   repo,
		Issuer: issuer,
		Model:  rt.model,
		Jobs:   jobService,
	})
	agentHandler := agent.NewHandler(agent.NewService(rt.router, repo, conversationLogger), agent.Options{
		RateLimitRequests: cfg.RateLimit.RequestsPerWindow,
		RateLimitWindow:   cfg.RateLimit.WindowDuration,
		OriginPatterns:    cfg.WebSocketOriginPatterns(),
	})
	defer agentHandler.Close()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	apiHandler.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(issuer.Optional)
		agentHandler.RegisterRoutes(r)
	})

	// Chat replies wait on model calls and /ws/chat is long-lived, so
	// writes carry no deadline.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}

	workerDone := retention.StartWorker(ctx, repo, cfg.ChatSessionRetention, retention.DefaultInterval, jobService)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			<-workerDone
			return fmt.Errorf("server failed: %w", err)
		}
	}
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-workerDone

	slog.Info("Server stopped successfully")
	return nil
}
