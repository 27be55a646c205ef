package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record - одна сохранённая пользовательская запись с локальной и
// необязательной серверной идентичностью.
type Record struct {
	LocalID      string          `json:"local_id"`
	RemoteID     string          `json:"remote_id,omitempty"`
	Stream       Stream          `json:"stream"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`
	Synced       bool            `json:"synced"`
	SyncAttempts int             `json:"sync_attempts,omitempty"`
}

// HasRemoteID сообщает, присвоен ли записи серверный идентификатор
func (r *Record) HasRemoteID() bool {
	return r.RemoteID != ""
}

// Validate проверяет инварианты записи
func (r *Record) Validate() error {
	if r.LocalID == "" {
		return fmt.Errorf("%w: пустой local_id", ErrInvalidData)
	}
	if err := r.Stream.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("%w: не задано время создания", ErrInvalidData)
	}
	if len(r.Payload) == 0 {
		return fmt.Errorf("%w: пустые данные записи", ErrInvalidData)
	}
	if r.Synced && !r.HasRemoteID() {
		return fmt.Errorf("%w: синхронизированная запись без remote_id", ErrInvalidData)
	}
	return nil
}

// Clone возвращает копию записи, не разделяющую буфер данных
func (r *Record) Clone() Record {
	c := *r
	if r.Payload != nil {
		c.Payload = append(json.RawMessage(nil), r.Payload...)
	}
	return c
}

// Payload - данные конкретного вида записи (отметка, тренировка и т.д.)
type Payload interface {
	Stream() Stream
	Validate() error
}

// Typed - запись с разобранными данными конкретного вида
type Typed[T Payload] struct {
	LocalID   string    `json:"local_id"`
	RemoteID  string    `json:"remote_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Synced    bool      `json:"synced"`
	Payload   T         `json:"payload"`
}

// Decode разбирает данные каждой записи последовательности, сохраняя порядок
func Decode[T Payload](records []Record) ([]Typed[T], error) {
	out := make([]Typed[T], 0, len(records))
	for _, r := range records {
		var p T
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return nil, fmt.Errorf("ошибка разбора записи %s: %w", r.LocalID, err)
		}
		out = append(out, Typed[T]{
			LocalID:   r.LocalID,
			RemoteID:  r.RemoteID,
			CreatedAt: r.CreatedAt,
			Synced:    r.Synced,
			Payload:   p,
		})
	}
	return out, nil
}

// MergeFields перезаписывает поля данных значениями, которым доверяет сервер.
// Поля, отсутствующие в fields, остаются без изменений.
func MergeFields(payload json.RawMessage, fields map[string]json.RawMessage) (json.RawMessage, error) {
	if len(fields) == 0 {
		return payload, nil
	}

	doc := map[string]json.RawMessage{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("ошибка разбора данных записи: %w", err)
		}
	}

	for k, v := range fields {
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации данных записи: %w", err)
	}
	return merged, nil
}

// CheckTransition проверяет допустимость изменения записи хранилищем:
// идентичность и время создания неизменны, synced не откатывается, remote_id не меняется.
// Счётчик попыток растёт и может быть только обнулён у несинхронизированной записи.
func CheckTransition(before, after Record) error {
	if before.LocalID != after.LocalID || before.Stream != after.Stream || !before.CreatedAt.Equal(after.CreatedAt) {
		return fmt.Errorf("%w: изменение неизменяемых полей записи %s", ErrInvalidData, before.LocalID)
	}
	if before.Synced && !after.Synced {
		return fmt.Errorf("%w: запись %s не может стать несинхронизированной", ErrInvalidData, before.LocalID)
	}
	if before.HasRemoteID() && after.RemoteID != before.RemoteID {
		return fmt.Errorf("%w: remote_id записи %s уже присвоен", ErrInvalidData, before.LocalID)
	}
	if after.SyncAttempts < before.SyncAttempts && (after.Synced || after.SyncAttempts != 0) {
		return fmt.Errorf("%w: счётчик попыток записи %s уменьшился", ErrInvalidData, before.LocalID)
	}
	return after.Validate()
}
