package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"equilibria/internal/domain/record"
	"equilibria/internal/infrastructure/storage/memory"
	"equilibria/internal/infrastructure/storage/sqlite"
)

func TestOpen(t *testing.T) {
	t.Run("sqlite file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "records.db")

		repo, err := Open(path, record.DefaultKeyTable(), slog.Default())
		require.NoError(t, err)
		defer repo.Close()

		assert.IsType(t, &sqlite.RecordRepository{}, repo)

		rec := record.Record{LocalID: "a", Stream: record.StreamWorkouts, Payload: json.RawMessage(`{}`), CreatedAt: time.Now()}
		require.NoError(t, repo.Append(context.Background(), "u1", record.StreamWorkouts, rec))
	})

	t.Run("path with space", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "John Doe", ".equilibria", "equilibria.db")

		repo, err := Open(path, record.DefaultKeyTable(), slog.Default())
		require.NoError(t, err)

		ctx := context.Background()
		rec := record.Record{LocalID: "a", Stream: record.StreamCheckIns, Payload: json.RawMessage(`{}`), CreatedAt: time.Now()}
		require.NoError(t, repo.Append(ctx, "u1", record.StreamCheckIns, rec))
		require.NoError(t, repo.Close())

		_, err = os.Stat(path)
		require.NoError(t, err)

		// повторное открытие видит те же записи
		repo, err = Open(path, record.DefaultKeyTable(), slog.Default())
		require.NoError(t, err)
		defer repo.Close()

		got, err := repo.ReadAll(ctx, "u1", record.StreamCheckIns)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].LocalID)
	})

	t.Run("in memory", func(t *testing.T) {
		repo, err := Open(InMemory, record.DefaultKeyTable(), slog.Default())
		require.NoError(t, err)
		assert.IsType(t, &memory.RecordRepository{}, repo)
	})

	t.Run("invalid key table", func(t *testing.T) {
		_, err := Open(InMemory, record.KeyTable{record.StreamCheckIns: "GLOBAL"}, slog.Default())
		assert.Error(t, err)
	})
}
