package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredAPIEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://spitr@localhost/spitr")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("SPITR_BOT_TOKEN_SECRET", strings.Repeat("s", 32))
}

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	setRequiredAPIEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SPITR_RATE_WINDOW", "not-a-duration")
	t.Setenv("SPITR_LOG_LEVEL", "debug")

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "https://example.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, 20, cfg.DBMaxConns)
	assert.Equal(t, 10*time.Second, cfg.DBStatementTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.MigrateOnStart)
}

func TestLoadAPIFromEnvRequiresSecrets(t *testing.T) {
	setRequiredAPIEnv(t)
	t.Setenv("SPITR_BOT_TOKEN_SECRET", "short")
	_, err := LoadAPIFromEnv()
	assert.ErrorContains(t, err, "SPITR_BOT_TOKEN_SECRET")

	setRequiredAPIEnv(t)
	t.Setenv("DATABASE_URL", "")
	_, err = LoadAPIFromEnv()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadBotRunnerFromEnv(t *testing.T) {
	t.Setenv("SPITR_BOT_TOKENS", " a , ,b ")
	t.Setenv("SPITR_BOTRUNNER_EVERY", "30s")
	t.Setenv("SPITR_BOTRUNNER_RUN_ONCE", "true")

	cfg, err := LoadBotRunnerFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.BotTokens)
	assert.Equal(t, 30*time.Second, cfg.Every)
	assert.True(t, cfg.RunOnce)

	t.Setenv("SPITR_BOT_TOKENS", "")
	_, err = LoadBotRunnerFromEnv()
	assert.Error(t, err)
}
