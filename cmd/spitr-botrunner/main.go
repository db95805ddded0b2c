package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spitr/internal/cli"
	"spitr/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.LoadBotRunnerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	r := &runner{api: cli.NewBotClient(cfg.APIBaseURL), log: logger, now: time.Now}

	runAll := func() {
		for i, token := range cfg.BotTokens {
			callCtx, cancel := context.WithTimeout(ctx, time.Minute)
			sum, err := r.runBot(callCtx, token)
			cancel()
			if err != nil {
				logger.Error("bot run failed", "bot", i, "err", err)
				continue
			}
			logger.Info("bot run complete", "bot_id", sum.BotID, "executed", sum.Executed, "failed", sum.Failed)
		}
	}

	if cfg.RunOnce {
		runAll()
		logger.Info("botrunner run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.Every)
	defer ticker.Stop()

	logger.Info("botrunner started", "every", cfg.Every.String(), "bots", len(cfg.BotTokens))
	runAll()
	for {
		select {
		case <-ctx.Done():
			logger.Info("botrunner shutdown")
			return
		case <-ticker.C:
			runAll()
		}
	}
}
