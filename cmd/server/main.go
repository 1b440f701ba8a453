package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"avatar-relay/internal/config"
	"avatar-relay/internal/database"
	"avatar-relay/internal/handlers"
	"avatar-relay/internal/logger"
	"avatar-relay/internal/repository"
	"avatar-relay/internal/router"
	"avatar-relay/internal/services"
	"avatar-relay/internal/websocket"
	"avatar-relay/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	if err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		slog.Error("logger setup failed", "error", err)
		os.Exit(1)
	}
	slog.Info("starting avatar relay", "env", cfg.Env, "model", cfg.LLMModel, "base_url", cfg.LLMBaseURL)
	if cfg.LLMAPIKey == "" {
		slog.Warn("DASHSCOPE_API_KEY is empty, provider calls will be unauthenticated")
	}

	// ──── Step 2: Optional PostgreSQL turn log ────
	checks := make(map[string]handlers.HealthCheck)
	var recorder worker.TurnRecorder
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			slog.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := database.RunMigrations(pool); err != nil {
			slog.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		recorder = repository.NewTurnRepo(pool)
		checks["postgres"] = pool.Ping
		slog.Info("postgres turn log enabled")
	}

	// ──── Step 3: Optional Redis event fan-out ────
	var pubsubClient *redis.Client
	var publisher worker.EventPublisher
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisClients.Close()

		pubsubClient = redisClients.PubSub
		checks["redis"] = redisClients.Ping
		publisher = services.NewRedisPublisher(redisClients.Publisher)
		slog.Info("redis event fan-out enabled", "channel", services.EventsChannel)
	}

	wsHub := websocket.NewHub(pubsubClient, services.EventsChannel)
	if publisher == nil {
		publisher = wsHub
	}

	// ──── Step 4: Turn workers ────
	workerPool := worker.NewPool(recorder, publisher, cfg.TurnWorkers, 128)
	workerPool.Start()

	// ──── Step 5: Relay service ────
	llmClient := services.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	history := services.NewConversationHistory(cfg.HistorySize)
	relay := services.NewRelayService(llmClient, history, services.NewMarkerDetector(), workerPool)
	slog.Info("relay configured", "model", llmClient.Model(), "history_limit", cfg.HistorySize)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		handlers.NewChatHandler(relay),
		handlers.NewConfigHandler(cfg.Public()),
		handlers.NewHistoryHandler(history),
		handlers.NewHealthHandler(checks),
		wsHub,
	)

	// No write timeout: chat responses stream for as long as the provider does.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	slog.Info("avatar relay ready", "addr", "http://localhost:"+cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	workerPool.Stop()
}
