// Package memory - хранилище записей в памяти процесса. Не переживает перезапуск,
// используется в тестах и при DATA_PATH=:memory:.
package memory

import (
	"context"
	"fmt"
	"sync"

	"equilibria/internal/domain/record"
)

type RecordRepository struct {
	mu      sync.RWMutex
	keys    record.KeyTable
	streams map[string][]record.Record
}

func NewRecordRepository(keys record.KeyTable) *RecordRepository {
	return &RecordRepository{
		keys:    keys,
		streams: make(map[string][]record.Record),
	}
}

func (m *RecordRepository) key(op, owner string, stream record.Stream) (string, error) {
	k, err := m.keys.Key(owner, stream)
	if err != nil {
		return "", &record.StorageError{Op: op, Stream: stream, Err: err}
	}
	return k, nil
}

func (m *RecordRepository) Append(ctx context.Context, owner string, stream record.Stream, rec record.Record) error {
	if err := ctx.Err(); err != nil {
		return &record.StorageError{Op: "append", Stream: stream, Err: err}
	}
	k, err := m.key("append", owner, stream)
	if err != nil {
		return err
	}
	if rec.Stream != stream {
		return &record.StorageError{Op: "append", Stream: stream, Err: fmt.Errorf("%w: запись потока %s", record.ErrInvalidData, rec.Stream)}
	}
	if err := rec.Validate(); err != nil {
		return &record.StorageError{Op: "append", Stream: stream, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.streams[k]
	for _, r := range existing {
		if r.LocalID == rec.LocalID {
			return &record.StorageError{Op: "append", Stream: stream, Err: record.ErrDuplicateID}
		}
	}

	next := make([]record.Record, 0, len(existing)+1)
	next = append(next, rec.Clone())
	next = append(next, existing...)
	m.streams[k] = next
	return nil
}

func (m *RecordRepository) ReadAll(ctx context.Context, owner string, stream record.Stream) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &record.StorageError{Op: "read", Stream: stream, Err: err}
	}
	k, err := m.key("read", owner, stream)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]record.Record, 0, len(m.streams[k]))
	for _, r := range m.streams[k] {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (m *RecordRepository) UpdateAt(ctx context.Context, owner string, stream record.Stream, localID string, mutate func(*record.Record) error) error {
	if err := ctx.Err(); err != nil {
		return &record.StorageError{Op: "update", Stream: stream, Err: err}
	}
	k, err := m.key("update", owner, stream)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.streams[k] {
		if r.LocalID != localID {
			continue
		}
		candidate := r.Clone()
		if err := mutate(&candidate); err != nil {
			return err
		}
		if err := record.CheckTransition(r, candidate); err != nil {
			return &record.StorageError{Op: "update", Stream: stream, Err: err}
		}
		m.streams[k][i] = candidate
		return nil
	}
	return record.ErrNotFound
}

func (m *RecordRepository) Close() error {
	return nil
}
