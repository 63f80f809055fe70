package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8086, cfg.Port)
	assert.Equal(t, "https://api.mypurecloud.com", cfg.APIBaseURL)
	assert.Equal(t, "wss://streaming.mypurecloud.com/signaling", cfg.StreamingURL)
	assert.Empty(t, cfg.AllowedSessionTypes)
	assert.False(t, cfg.DisableAutoAnswer)
	assert.False(t, cfg.AutoConnectSessions)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(`
mode: debug
port: 9000
user_id: user-1
allowed_session_types:
  - softphone
  - video
disable_auto_answer: true
http_timeout: 3s
`), 0o644))

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "user-1", cfg.UserID)
	assert.Equal(t, []string{"softphone", "video"}, cfg.AllowedSessionTypes)
	assert.True(t, cfg.DisableAutoAnswer)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "info", cfg.LogLevel, "unset keys keep their defaults")
}
