package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Engine.SnoozeDelay)
	assert.Equal(t, "@every 1m", cfg.Engine.RefreshSchedule)
	assert.Equal(t, 2, cfg.Engine.MissThreshold)
	assert.Equal(t, time.Second, cfg.Auth.LoginDelay)
	assert.Equal(t, filepath.Join(dir, "medremind.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, filepath.Join(dir, "badger"), cfg.Storage.BadgerPath)
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	assert.True(t, cfg.SecretGenerated())
	assert.Empty(t, cfg.Path())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "medremind.yaml")
	content := `
engine:
  snooze_delay: 5m
  timezone: UTC
  miss_threshold: 3
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, 5*time.Minute, cfg.Engine.SnoozeDelay)
	assert.Equal(t, 3, cfg.Engine.MissThreshold)
	assert.Equal(t, 9090, cfg.Server.Port)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MEDREMIND_ENGINE_SNOOZE_DELAY", "30s")
	t.Setenv("MEDREMIND_JWT_SECRET", "from-alias")

	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Engine.SnoozeDelay)
	assert.Equal(t, "from-alias", cfg.Auth.JWTSecret)
	assert.False(t, cfg.SecretGenerated())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"zero snooze":      "engine:\n  snooze_delay: 0s\n",
		"bad schedule":     "engine:\n  refresh_schedule: sometimes\n",
		"zero threshold":   "engine:\n  miss_threshold: 0\n",
		"unknown timezone": "engine:\n  timezone: Mars/Olympus\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "medremind.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := Load(path, dir)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrConfigInvalid.Code, apperrors.GetCode(err))
		})
	}
}
