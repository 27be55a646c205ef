package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator - интерфейс для самой библиотеки migrate.Migrate
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine - фабрика для создания мигратора (чтобы не лезть в ФС и БД в тестах)
type MigrationEngine func(db *sql.DB) (Migrator, error)

type Migration struct {
	db     *sql.DB
	engine MigrationEngine
}

// NewMigration создаёт миграцию открытой базы SQLite.
// Up закрывает db вместе с мигратором, поэтому хранилищу нужно своё соединение.
func NewMigration(db *sql.DB, engine MigrationEngine) *Migration {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Migration{
		db:     db,
		engine: engine,
	}
}

// DefaultEngine - реальная реализация: встроенные SQL-файлы и драйвер sqlite3
// поверх готового соединения. Путь к файлу не проходит через URL, поэтому
// пробелы и прочие символы в пути не искажаются.
func DefaultEngine(db *sql.DB) (Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "sqlite3", driver)
}

func (mg *Migration) Up() (err error) {
	m, err := mg.engine(mg.db)
	if err != nil {
		if mg.db != nil {
			mg.db.Close()
		}
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w; migration up error", err)
	}
	return nil
}
