// Dialogue engine - guided emotional-literacy conversations for children.
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/namurok/dialogue-engine/internal/api"
	"github.com/namurok/dialogue-engine/internal/capability"
	"github.com/namurok/dialogue-engine/internal/capability/openai"
	"github.com/namurok/dialogue-engine/internal/capability/supertone"
	"github.com/namurok/dialogue-engine/internal/config"
	"github.com/namurok/dialogue-engine/internal/evaluator"
	"github.com/namurok/dialogue-engine/internal/feedback"
	"github.com/namurok/dialogue-engine/internal/middleware"
	"github.com/namurok/dialogue-engine/internal/orchestrator"
	"github.com/namurok/dialogue-engine/internal/respond"
	"github.com/namurok/dialogue-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Live session store: Redis when configured, in-memory otherwise.
	var sessions store.SessionStore
	var memSessions *store.MemoryStore
	if cfg.Redis.Addr != "" {
		sessions, err = store.NewRedis(context.Background(), store.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.SessionTTL,
		})
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		slog.Info("Redis connected", "addr", cfg.Redis.Addr, "session_ttl", cfg.Redis.SessionTTL)
	} else {
		memSessions = store.NewMemory(cfg.Redis.SessionTTL)
		sessions = memSessions
		slog.Warn("REDIS_ADDR not set, using in-memory session store")
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	archive, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize archive database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := archive.Close(); closeErr != nil {
			slog.Error("Failed to close archive", "error", closeErr)
		}
	}()
	slog.Info("Archive database connected", "path", cfg.DBPath)

	// Capability clients.
	aiClient, err := openai.NewClient(openai.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		ChatModel:      cfg.OpenAI.ChatModel,
		EvalModel:      cfg.OpenAI.EvalModel,
		RequestTimeout: cfg.OpenAI.RequestTimeout,
	}, logger)
	if err != nil {
		slog.Error("Failed to create AI client", "error", err)
		os.Exit(1)
	}

	var speech capability.Speech
	if cfg.Supertone.APIKey != "" {
		tts, err := supertone.NewClient(supertone.Config{
			APIKey:         cfg.Supertone.APIKey,
			BaseURL:        cfg.Supertone.BaseURL,
			VoiceName:      cfg.Supertone.VoiceName,
			RequestTimeout: cfg.Supertone.RequestTimeout,
		}, logger)
		if err != nil {
			slog.Error("Failed to create TTS client", "error", err)
			os.Exit(1)
		}
		speech = tts
	} else {
		slog.Warn("SUPERTONE_API_KEY not set, responses will be text-only")
	}

	orch, err := orchestrator.New(orchestrator.Deps{
		Sessions:   sessions,
		Archive:    archive,
		Safety:     openai.NewSafetyGate(aiClient),
		Classifier: openai.NewEmotionClassifier(aiClient),
		Evaluator:  evaluator.New(openai.NewJudge(aiClient), logger),
		Responder:  respond.NewGenerator(),
		Speech:     speech,
		Logger:     logger,
	})
	if err != nil {
		slog.Error("Failed to assemble orchestrator", "error", err)
		os.Exit(1)
	}

	fb := feedback.NewService(archive, openai.NewFeedbackWriter(aiClient), logger)
	handler := api.NewHandler(orch, sessions, archive, fb, openai.NewTranscriber(aiClient), logger)

	// Setup router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis expires session keys itself; the in-memory store needs a sweep.
	if memSessions != nil {
		store.StartTTLWorker(ctx, memSessions, logger)
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
