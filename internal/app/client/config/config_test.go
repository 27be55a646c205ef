package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equilibria/internal/domain/record"
)

func TestLoad_Defaults(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	// Act
	cfg, err := Load(Options{EnvFile: filepath.Join(dir, "missing.env")})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, defaultServerAddress, cfg.ServerAddress)
	assert.Equal(t, 15*time.Second, cfg.SyncTimeout)
	assert.Equal(t, defaultDrainBatchSize, cfg.DrainBatchSize)
	assert.Equal(t, defaultMaxAttempts, cfg.MaxSyncAttempts)
	assert.False(t, cfg.SyncOnStart)
	assert.Equal(t, filepath.Join(dir, defaultDataFile), cfg.DataPath)
	assert.Equal(t, filepath.Join(dir, defaultTokenFile), cfg.TokenPath)
	assert.Equal(t, filepath.Join(dir, defaultDeviceKeyFile), cfg.DeviceKeyPath)
	assert.Equal(t, record.DefaultKeyTable(), cfg.StreamKeys)
	assert.InDelta(t, 0.4, cfg.RecoveryWeights.Sleep, 1e-9)
	assert.InDelta(t, 7, cfg.RiskThresholds.MediumBelow, 1e-9)
	assert.Equal(t, 80, cfg.RiskThresholds.HighVolumeAbove)
	assert.False(t, cfg.InMemory())
}

func TestLoad_Environment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("DATA_PATH", MemoryDataPath)
	t.Setenv("SYNC_TIMEOUT_SECONDS", "3")
	t.Setenv("SYNC_ON_START", "true")
	t.Setenv("STREAM_KEY_CHECKINS", "v2/checkins/{owner}")

	cfg, err := Load(Options{EnvFile: filepath.Join(dir, "missing.env")})

	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.True(t, cfg.InMemory())
	assert.Equal(t, 3*time.Second, cfg.SyncTimeout)
	assert.True(t, cfg.SyncOnStart)
	assert.Equal(t, "v2/checkins/{owner}", cfg.StreamKeys[record.StreamCheckIns])
}

func TestLoad_EnvFileAndYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DRAIN_BATCH_SIZE=7\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("DRAIN_BATCH_SIZE") })

	yamlFile := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte("server_address: api.example.com\nmax_sync_attempts: 9\n"), 0600))

	cfg, err := Load(Options{EnvFile: envFile, ConfigFile: yamlFile})

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.DrainBatchSize)
	assert.Equal(t, "api.example.com", cfg.ServerAddress)
	assert.Equal(t, 9, cfg.MaxSyncAttempts)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown env", key: "APP_ENV", val: "staging"},
		{name: "zero timeout", key: "SYNC_TIMEOUT_SECONDS", val: "0"},
		{name: "zero batch", key: "DRAIN_BATCH_SIZE", val: "0"},
		{name: "zero attempts", key: "MAX_SYNC_ATTEMPTS", val: "0"},
		{name: "key without owner", key: "STREAM_KEY_WORKOUTS", val: "workouts"},
		{name: "negative weight", key: "RECOVERY_WEIGHT_SLEEP", val: "-1"},
		{name: "thresholds inverted", key: "RISK_HIGH_BELOW", val: "9"},
		{name: "negative volume threshold", key: "RISK_HIGH_VOLUME_ABOVE", val: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("CONFIG_DIR", dir)
			t.Setenv(tt.key, tt.val)

			_, err := Load(Options{EnvFile: filepath.Join(dir, "missing.env")})
			assert.Error(t, err)
			assert.Panics(t, func() { MustLoad(Options{EnvFile: filepath.Join(dir, "missing.env")}) })
		})
	}
}

func TestLoad_MissingExplicitConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	_, err := Load(Options{EnvFile: filepath.Join(dir, "missing.env"), ConfigFile: filepath.Join(dir, "nope.yaml")})
	assert.Error(t, err)
}

func TestConfig_WriteDefault(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("MAX_SYNC_ATTEMPTS", "8")
	cfg, err := Load(Options{EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	// Act
	path, created, err := cfg.WriteDefault()

	// Assert
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)

	_, created, err = cfg.WriteDefault()
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, os.Unsetenv("MAX_SYNC_ATTEMPTS"))
	reloaded, err := Load(Options{EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, 8, reloaded.MaxSyncAttempts)
}
