package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spitr/internal/api"
	"spitr/internal/auth"
	"spitr/internal/config"
	"spitr/internal/db"
	"spitr/internal/game"
	"spitr/internal/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if cfg.MigrateOnStart {
		changed, err := db.MigrateUp(cfg.DatabaseURL)
		if err != nil {
			logger.Error("migrate failed", "err", err)
			os.Exit(1)
		}
		logger.Info("migrations applied", "changed", changed)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:         int32(cfg.DBMaxConns),
		StatementTimeout: cfg.DBStatementTimeout,
		ApplicationName:  "spitr-api",
	})
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	gameSvc := game.NewService(pool, logger)
	var relay game.Relay = notify.NewLog(logger)
	if cfg.DiscordWebhookURL != "" {
		discord, err := notify.NewDiscord(cfg.DiscordWebhookURL, "destroyed", "push")
		if err != nil {
			logger.Error("discord relay", "err", err)
			os.Exit(1)
		}
		relay = notify.Fanout{relay, discord}
	}
	gameSvc.SetRelay(relay)

	var opts []api.Option
	if client := api.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger); client != nil {
		defer client.Close()
		opts = append(opts, api.WithRateLimiter(api.NewRateLimiter(client, cfg.RateLimit, cfg.RateWindow, logger)))
	}

	authClient := auth.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	botTokens := auth.NewBotTokens(cfg.BotTokenSecret, 0)
	server := api.New(cfg, logger, authClient, botTokens, gameSvc, opts...)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("spitr api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
