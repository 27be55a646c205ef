// Package sqlite - долговечное локальное хранилище записей на SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"equilibria/internal/domain/record"
)

type RecordRepository struct {
	db   *sql.DB
	keys record.KeyTable
	log  *slog.Logger
}

// OpenDB открывает соединение с файлом базы. Путь передаётся драйверу как есть.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}
	return db, nil
}

// Open открывает базу по пути. Схема должна быть уже применена миграциями.
func Open(path string, keys record.KeyTable, log *slog.Logger) (*RecordRepository, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return NewRecordRepository(db, keys, log), nil
}

func NewRecordRepository(db *sql.DB, keys record.KeyTable, log *slog.Logger) *RecordRepository {
	return &RecordRepository{
		db:   db,
		keys: keys,
		log:  log.With("component", "record_repository"),
	}
}

func (r *RecordRepository) key(op, owner string, stream record.Stream) (string, error) {
	k, err := r.keys.Key(owner, stream)
	if err != nil {
		return "", &record.StorageError{Op: op, Stream: stream, Err: err}
	}
	return k, nil
}

func (r *RecordRepository) Append(ctx context.Context, owner string, stream record.Stream, rec record.Record) error {
	k, err := r.key("append", owner, stream)
	if err != nil {
		return err
	}
	if rec.Stream != stream {
		return &record.StorageError{Op: "append", Stream: stream, Err: fmt.Errorf("%w: запись потока %s", record.ErrInvalidData, rec.Stream)}
	}
	if err := rec.Validate(); err != nil {
		return &record.StorageError{Op: "append", Stream: stream, Err: err}
	}

	const query = `
		INSERT INTO records (stream_key, local_id, remote_id, payload, created_at, synced, sync_attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		k, rec.LocalID, nullString(rec.RemoteID), string(rec.Payload),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.Synced, rec.SyncAttempts)
	if err != nil {
		if isUniqueViolation(err) {
			err = record.ErrDuplicateID
		}
		r.log.Error("failed to append record", "stream", stream, "local_id", rec.LocalID, "error", err)
		return &record.StorageError{Op: "append", Stream: stream, Err: err}
	}
	return nil
}

func (r *RecordRepository) ReadAll(ctx context.Context, owner string, stream record.Stream) ([]record.Record, error) {
	k, err := r.key("read", owner, stream)
	if err != nil {
		return nil, err
	}

	// AUTOINCREMENT id растёт с каждой вставкой, поэтому DESC даёт порядок от новых к старым
	const query = `
		SELECT local_id, remote_id, payload, created_at, synced, sync_attempts
		FROM records
		WHERE stream_key = ?
		ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, k)
	if err != nil {
		return nil, &record.StorageError{Op: "read", Stream: stream, Err: err}
	}
	defer rows.Close()

	records := make([]record.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows, stream)
		if err != nil {
			return nil, &record.StorageError{Op: "read", Stream: stream, Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &record.StorageError{Op: "read", Stream: stream, Err: err}
	}
	return records, nil
}

func (r *RecordRepository) UpdateAt(ctx context.Context, owner string, stream record.Stream, localID string, mutate func(*record.Record) error) error {
	k, err := r.key("update", owner, stream)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &record.StorageError{Op: "update", Stream: stream, Err: err}
	}
	defer tx.Rollback()

	const selectQuery = `
		SELECT local_id, remote_id, payload, created_at, synced, sync_attempts
		FROM records
		WHERE stream_key = ? AND local_id = ?`

	before, err := scanRecord(tx.QueryRowContext(ctx, selectQuery, k, localID), stream)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.ErrNotFound
		}
		return &record.StorageError{Op: "update", Stream: stream, Err: err}
	}

	after := before.Clone()
	if err := mutate(&after); err != nil {
		return err
	}
	if err := record.CheckTransition(before, after); err != nil {
		return &record.StorageError{Op: "update", Stream: stream, Err: err}
	}

	const updateQuery = `
		UPDATE records
		SET remote_id = ?, payload = ?, synced = ?, sync_attempts = ?
		WHERE stream_key = ? AND local_id = ?`

	if _, err := tx.ExecContext(ctx, updateQuery,
		nullString(after.RemoteID), string(after.Payload), after.Synced, after.SyncAttempts,
		k, localID); err != nil {
		return &record.StorageError{Op: "update", Stream: stream, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &record.StorageError{Op: "update", Stream: stream, Err: err}
	}
	return nil
}

func (r *RecordRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, stream record.Stream) (record.Record, error) {
	var (
		rec       record.Record
		remoteID  sql.NullString
		payload   string
		createdAt string
	)
	if err := row.Scan(&rec.LocalID, &remoteID, &payload, &createdAt, &rec.Synced, &rec.SyncAttempts); err != nil {
		return record.Record{}, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return record.Record{}, fmt.Errorf("ошибка разбора времени создания: %w", err)
	}

	rec.Stream = stream
	rec.RemoteID = remoteID.String
	rec.Payload = []byte(payload)
	rec.CreatedAt = ts
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintUnique || serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
