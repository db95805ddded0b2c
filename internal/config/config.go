package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type APIConfig struct {
	Addr               string
	DatabaseURL        string
	DBMaxConns         int
	DBStatementTimeout time.Duration
	SupabaseURL        string
	SupabaseAnonKey    string
	BotTokenSecret     string
	WebhookSecret      string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RateLimit          int
	RateWindow         time.Duration
	DiscordWebhookURL  string
	MigrateOnStart     bool
	LogLevel           slog.Level
}

type CLIConfig struct {
	APIBaseURL string
}

type BotRunnerConfig struct {
	APIBaseURL string
	BotTokens  []string
	Every      time.Duration
	RunOnce    bool
	LogLevel   slog.Level
}

// LoadDotEnv reads .env from the working directory when it exists. Variables already
// set in the environment win.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("SPITR_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:               addr,
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:         envIntDefault("SPITR_DB_MAX_CONNS", 20),
		DBStatementTimeout: envDurationDefault("SPITR_DB_STATEMENT_TIMEOUT", 10*time.Second),
		SupabaseURL:        strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
		SupabaseAnonKey:    strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY")),
		BotTokenSecret:     strings.TrimSpace(os.Getenv("SPITR_BOT_TOKEN_SECRET")),
		WebhookSecret:      strings.TrimSpace(os.Getenv("SPITR_WEBHOOK_SECRET")),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            envIntDefault("REDIS_DB", 0),
		RateLimit:          envIntDefault("SPITR_RATE_LIMIT", 30),
		RateWindow:         envDurationDefault("SPITR_RATE_WINDOW", time.Minute),
		DiscordWebhookURL:  strings.TrimSpace(os.Getenv("SPITR_DISCORD_WEBHOOK_URL")),
		MigrateOnStart:     envBoolDefault("SPITR_MIGRATE_ON_START", false),
		LogLevel:           envLevelDefault("SPITR_LOG_LEVEL", slog.LevelInfo),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SupabaseURL == "" {
		return cfg, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return cfg, fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	if len(cfg.BotTokenSecret) < 32 {
		return cfg, fmt.Errorf("SPITR_BOT_TOKEN_SECRET must be at least 32 characters")
	}
	if cfg.RateLimit <= 0 {
		return cfg, fmt.Errorf("SPITR_RATE_LIMIT must be > 0")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("SPITR_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func LoadBotRunnerFromEnv() (BotRunnerConfig, error) {
	cfg := BotRunnerConfig{
		APIBaseURL: strings.TrimRight(envDefault("SPITR_API_BASE_URL", "http://localhost:8080"), "/"),
		BotTokens:  envList("SPITR_BOT_TOKENS"),
		Every:      envDurationDefault("SPITR_BOTRUNNER_EVERY", 5*time.Minute),
		RunOnce:    envBoolDefault("SPITR_BOTRUNNER_RUN_ONCE", false),
		LogLevel:   envLevelDefault("SPITR_LOG_LEVEL", slog.LevelInfo),
	}
	if len(cfg.BotTokens) == 0 {
		return cfg, fmt.Errorf("SPITR_BOT_TOKENS is required")
	}
	if cfg.Every < time.Second {
		return cfg, fmt.Errorf("SPITR_BOTRUNNER_EVERY must be at least 1s")
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envLevelDefault(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
