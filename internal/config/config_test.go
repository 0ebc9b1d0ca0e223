package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr)
	assert.Equal(t, ModeDevelopment, cfg.Server.Mode)
	assert.Equal(t, 8*time.Second, cfg.Simulator.Interval)
	assert.Equal(t, 500, cfg.Simulator.HistoryLimit)
	assert.InDelta(t, 0.01, cfg.Simulator.InitialRate, 1e-12)
	assert.Equal(t, 100, cfg.Economy.GlobalChatLimit)
	assert.Equal(t, 12*time.Hour, cfg.Economy.RouletteCooldown)
	assert.True(t, cfg.Session.RequireAuth)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_ADDR", "127.0.0.1:4000")
	t.Setenv("SIMULATOR_INTERVAL", "2s")
	t.Setenv("SESSION_REQUIRE_AUTH", "false")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Simulator.Interval)
	assert.False(t, cfg.Session.RequireAuth)
}

func TestLoadRejectsProductionWithoutSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_MODE", ModeProduction)

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, Name: "n"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", d.DSN())
}
