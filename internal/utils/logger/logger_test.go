package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"golang.org/x/exp/slog"

	"equilibria/internal/app/client/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		expectedLevel slog.Level
	}{
		{
			name:          "local environment",
			env:           config.EnvLocal,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "dev environment",
			env:           config.EnvDev,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "prod environment",
			env:           config.EnvProd,
			expectedLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.env)
			require.NotNil(t, logger)
			ctx := context.Background()
			assert.Equal(t, tt.expectedLevel <= slog.LevelDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.expectedLevel <= slog.LevelInfo, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestSetupPrettySlog(t *testing.T) {
	logger := setupPrettySlog()
	require.NotNil(t, logger)

	ctx := context.Background()
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))
}

func TestWithLevel(t *testing.T) {
	ctx := context.Background()

	// Local + warn - только WARN и выше
	l := WithLevel(config.EnvLocal, "warn")
	assert.False(t, l.Enabled(ctx, slog.LevelInfo))
	assert.True(t, l.Enabled(ctx, slog.LevelWarn))

	// Некорректный уровень - как New
	l = WithLevel(config.EnvProd, "verbose")
	assert.False(t, l.Enabled(ctx, slog.LevelDebug))
	assert.True(t, l.Enabled(ctx, slog.LevelInfo))
}

func TestPrettyHandler_Output(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, slog.LevelInfo)).
		With(slog.String("component", "reconcile")).
		WithGroup("sync")

	log.Debug("hidden")
	log.Warn("sync failed", slog.Any("error", errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "sync failed")
	assert.Contains(t, out, `"component": "reconcile"`)
	assert.Contains(t, out, `"sync.error": "boom"`)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Info("ignored") })
}
