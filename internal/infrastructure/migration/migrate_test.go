package migration

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMigrator - мок для интерфейса Migrator
type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func TestMigration_Up_Success(t *testing.T) {
	mockM := new(MockMigrator)

	// Настраиваем поведение
	mockM.On("Up").Return(nil)
	mockM.On("Close").Return(nil, nil)

	db := &sql.DB{}
	var gotDB *sql.DB
	engine := func(d *sql.DB) (Migrator, error) {
		gotDB = d
		return mockM, nil
	}

	mg := NewMigration(db, engine)
	err := mg.Up()

	assert.NoError(t, err)
	assert.Same(t, db, gotDB)
	mockM.AssertExpectations(t)
}

func TestMigration_Up_NoChange(t *testing.T) {
	mockM := new(MockMigrator)

	// ErrNoChange не должна считаться ошибкой в методе Up()
	mockM.On("Up").Return(migrate.ErrNoChange)
	mockM.On("Close").Return(nil, nil)

	engine := func(*sql.DB) (Migrator, error) {
		return mockM, nil
	}

	err := NewMigration(nil, engine).Up()

	assert.NoError(t, err)
}

func TestMigration_Up_CloseError(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(nil)
	mockM.On("Close").Return(nil, errors.New("db busy"))

	engine := func(*sql.DB) (Migrator, error) {
		return mockM, nil
	}

	err := NewMigration(nil, engine).Up()

	assert.EqualError(t, err, "db busy")
}

func TestMigration_Up_EngineError(t *testing.T) {
	// Ошибка на этапе создания мигратора (например, неверный драйвер)
	engine := func(*sql.DB) (Migrator, error) {
		return nil, errors.New("engine crash")
	}

	err := NewMigration(nil, engine).Up()

	assert.Error(t, err)
	assert.Equal(t, "engine crash", err.Error())
}

func migrateFile(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	require.NoError(t, NewMigration(db, nil).Up())
}

func TestMigration_Up_SQLite(t *testing.T) {
	tests := []struct {
		name string
		dir  string
	}{
		{name: "plain path", dir: "data"},
		{name: "path with space", dir: filepath.Join("John Doe", ".equilibria")},
		{name: "path with percent", dir: "100%20done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), tt.dir)
			require.NoError(t, os.MkdirAll(dir, 0700))
			path := filepath.Join(dir, "records.db")

			// повторный запуск не должен падать
			migrateFile(t, path)
			migrateFile(t, path)

			_, err := os.Stat(path)
			require.NoError(t, err)

			db, err := sql.Open("sqlite3", path)
			require.NoError(t, err)
			defer db.Close()

			var name string
			err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'records'`).Scan(&name)
			require.NoError(t, err)
			assert.Equal(t, "records", name)
		})
	}
}

func TestMigration_Up_ClosesDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)

	require.NoError(t, NewMigration(db, nil).Up())

	assert.Error(t, db.Ping())
}
