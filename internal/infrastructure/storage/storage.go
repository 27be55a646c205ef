package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/slog"

	"equilibria/internal/domain/record"
	"equilibria/internal/infrastructure/migration"
	"equilibria/internal/infrastructure/storage/memory"
	"equilibria/internal/infrastructure/storage/sqlite"
)

// InMemory - значение DATA_PATH, при котором записи хранятся только в памяти
const InMemory = ":memory:"

// Open открывает локальное хранилище записей: применяет миграции и открывает SQLite.
// При path == ":memory:" возвращается хранилище в памяти.
func Open(path string, keys record.KeyTable, log *slog.Logger) (record.Repository, error) {
	if err := keys.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная таблица ключей: %w", err)
	}

	if path == InMemory {
		log.Warn("Используется хранилище в памяти, записи не переживут перезапуск")
		return memory.NewRecordRepository(keys), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога данных: %w", err)
	}

	mdb, err := sqlite.OpenDB(path)
	if err != nil {
		return nil, err
	}
	// мигратор закрывает своё соединение сам
	if err := migration.NewMigration(mdb, migration.DefaultEngine).Up(); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	repo, err := sqlite.Open(path, keys, log)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
