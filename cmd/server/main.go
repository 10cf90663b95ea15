// Mock interview server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/mockinterview/internal/api"
	"github.com/ashureev/mockinterview/internal/config"
	"github.com/ashureev/mockinterview/internal/convlog"
	"github.com/ashureev/mockinterview/internal/interview"
	"github.com/ashureev/mockinterview/internal/llm"
	"github.com/ashureev/mockinterview/internal/middleware"
	"github.com/ashureev/mockinterview/internal/store"
	"github.com/ashureev/mockinterview/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped successfully")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting server",
		"port", cfg.Port,
		"llm_provider", cfg.LLM.Provider,
		"session_backend", cfg.SessionBackend,
	)

	repo, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		return err
	}

	if !cfg.LLMConfigured() {
		slog.Warn("No API key configured for LLM provider, model calls will fail", "provider", cfg.LLM.Provider)
	}
	gen, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	conversationLogger, err := convlog.New(convlog.Config{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	svc := interview.NewService(repo, gen, conversationLogger, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	api.Mount(r,
		api.NewInterviewHandler(svc, cfg.MaxUploadBytes, logger),
		api.NewHealthHandler(repo, cfg.LLM.Provider, cfg.LLMConfigured(), logger),
	)

	if spa, ok := web.SPAHandler(cfg.FrontendDir); ok {
		r.Handle("/*", spa)
		slog.Info("Serving frontend", "dir", cfg.FrontendDir)
	} else {
		slog.Info("Frontend bundle not found, static hosting disabled", "dir", cfg.FrontendDir)
	}

	// WriteTimeout must exceed the worst case of three sequential model calls.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3*cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	interview.StartIdleSweeper(ctx, repo, cfg.SessionIdleTTL, 0, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(cfg *config.Config) (store.Repository, error) {
	if cfg.SessionBackend == config.BackendSQLite {
		repo, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("SQLite session store ready", "path", cfg.DBPath)
		return repo, nil
	}
	return store.NewMemory(), nil
}
