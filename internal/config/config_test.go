package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "agents", cfg.Store.Table)
	assert.Equal(t, 90*time.Second, cfg.Build.TotalDuration)
	assert.Equal(t, 100*time.Millisecond, cfg.Build.TickInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Build.CompletionDelay)
	assert.Equal(t, 7500*time.Millisecond, cfg.Build.FactInterval)
	assert.InDelta(t, 0.2, cfg.Build.EarlyFloor, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Build.PollStartDelay)
	assert.Equal(t, 5*time.Second, cfg.Build.PollInterval)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())

	b := cfg.BuildOptions()
	assert.Equal(t, cfg.Build.PollStartDelay, b.Poll.StartDelay)

	a := cfg.AutomationOptions()
	assert.Equal(t, "http://localhost:5678/webhook", a.BaseURL)
	assert.Equal(t, 30*time.Second, a.RequestTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AGENT_STORE", "rest")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FRONTEND_URL", "https://onboard.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "rest", cfg.StoreOptions().Backend)
	assert.Equal(t, "https://project.supabase.co", cfg.StoreOptions().RESTURL)
	assert.Equal(t, 2*time.Second, cfg.Build.PollInterval)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_ZeroPollStartDelay(t *testing.T) {
	t.Setenv("POLL_START_DELAY", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.BuildOptions().Poll.StartDelay)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("AGENT_STORE", "mysql")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Backend")
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	t.Setenv("AGENT_STORE", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("BUILD_TOTAL_DURATION", "soon")
	_, err := Load()
	require.Error(t, err)
}
