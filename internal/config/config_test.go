package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "table-7"

[network]
bind_address = "127.0.0.1:9000"
idle_timeout = "2m"

[timer]
turn_bank_seconds = 10

[logging]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "table-7", cfg.Server.Name)
	assert.Equal(t, "127.0.0.1:9000", cfg.Network.BindAddress)
	assert.Equal(t, 2*time.Minute, cfg.Network.IdleTimeout)
	assert.Equal(t, 10, cfg.Timer.TurnBankSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Untouched sections keep their defaults.
	assert.Equal(t, 5, cfg.Timer.TurnIncrementSeconds)
	assert.Equal(t, 8, cfg.Timer.MeldTimeoutSeconds)
	assert.Equal(t, "hanchan", cfg.Game.Preset)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 15*time.Second, cfg.Network.HeartbeatInterval)

	assert.NotZero(t, cfg.Server.StartTime)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, `[server`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "mjgo", cfg.Server.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.Network.BindAddress)
	assert.Equal(t, 30, cfg.Network.MessagesPerSecond)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 60*time.Second, cfg.Game.PendingStartTimeout)
	assert.Equal(t, 256, cfg.Game.MaxPendingGames)
	assert.NotZero(t, cfg.Server.StartTime)
}
