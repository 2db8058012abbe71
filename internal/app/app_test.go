package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gmsas95/medremind/internal/config"
	"github.com/gmsas95/medremind/internal/medication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{name: "create app with version", version: "1.0.0"},
		{name: "create app with dev version", version: "dev"},
		{name: "create app with empty version", version: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Engine: config.EngineConfig{Timezone: "UTC"}}
			app, err := New(cfg, nil, zap.NewNop(), tt.version)
			require.NoError(t, err)
			require.NotNil(t, app.Engine)
			assert.Equal(t, tt.version, app.Version)
			assert.NoError(t, app.Close())
		})
	}
}

func TestEngineOptions_BadTimezone(t *testing.T) {
	cfg := &config.Config{Engine: config.EngineConfig{Timezone: "Nowhere/Special"}}
	_, err := EngineOptions(cfg)
	assert.Error(t, err)
}

func TestBootstrapAndRestart(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEDREMIND_ENGINE_TIMEZONE", "UTC")
	t.Setenv("MEDREMIND_LOG_FORMAT", "json")
	t.Setenv("MEDREMIND_LOG_LEVEL", "error")
	t.Setenv("MEDREMIND_AUTH_JWT_SECRET", "")
	t.Setenv("MEDREMIND_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")

	first, err := Bootstrap("", dir, "test")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "medremind.db"), first.Config.Storage.SQLitePath)
	require.NoError(t, first.Start(context.Background()))
	require.True(t, first.Config.SecretGenerated())
	secret := first.Config.Auth.JWTSecret
	require.NotEmpty(t, secret)

	_, err = first.Engine.CreateMedicine(medication.Fields{
		Name:       "Aspirin",
		Dosage:     "1 tablet",
		Timing:     medication.AfterBreakfast,
		Recurrence: medication.Daily(),
	})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Bootstrap("", dir, "test")
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Start(context.Background()))

	meds := second.Engine.ListMedicines()
	require.Len(t, meds, 1)
	assert.Equal(t, "Aspirin", meds[0].Name)
	assert.Len(t, second.Engine.ListToday(), 1)
	assert.Equal(t, 10*time.Minute, second.Engine.SnoozeDelay())
	assert.Equal(t, secret, second.Config.Auth.JWTSecret, "generated signing secret survives a restart")
}

func TestBootstrap_ConfiguredSecretIsNotStored(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEDREMIND_LOG_LEVEL", "error")
	t.Setenv("MEDREMIND_AUTH_JWT_SECRET", "configured-secret")

	application, err := Bootstrap("", dir, "test")
	require.NoError(t, err)
	defer application.Close()

	assert.False(t, application.Config.SecretGenerated())
	assert.Equal(t, "configured-secret", application.Config.Auth.JWTSecret)

	_, err = application.Store.GetKV(jwtSecretKey)
	assert.Error(t, err)
}
