package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress)
	assert.Equal(t, "file://migrations", cfg.MigrationURL)
	assert.Equal(t, "none", cfg.EventsDriver)
	assert.Equal(t, 2*time.Second, cfg.SubmitLatency)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := "SERVER_ADDRESS=127.0.0.1:9000\nSUBMIT_LATENCY=500ms\nREDIS_DB=2\nEVENTS_DRIVER=nats\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))
	t.Setenv("EVENTS_DRIVER", "kafka")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddress)
	assert.Equal(t, 500*time.Millisecond, cfg.SubmitLatency)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "kafka", cfg.EventsDriver)
}
