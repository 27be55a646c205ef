package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"equilibria/internal/domain/record"
)

var (
	ErrNoCredential = errors.New("no credential")
	ErrNoGateway    = errors.New("no gateway for stream")
	ErrMalformedAck = errors.New("malformed gateway acknowledgement")
	// ErrRejected - сервер ответил и отказался принять данные. Только такие
	// отказы расходуют лимит попыток; сетевые сбои и таймауты его не тратят.
	ErrRejected = errors.New("rejected by server")
)

// IsRejection сообщает, засчитывается ли ошибка шлюза в лимит попыток записи
func IsRejection(err error) bool {
	return errors.Is(err, ErrRejected) || errors.Is(err, ErrMalformedAck)
}

// Ack - подтверждение сервера: серверный id и поля, которым доверяет сервер
type Ack struct {
	RemoteID string
	Fields   map[string]json.RawMessage
}

// Gateway отправляет данные одного потока на сервер.
// Локальные служебные поля (local_id, synced) в payload не передаются.
type Gateway interface {
	Push(ctx context.Context, token string, payload json.RawMessage) (*Ack, error)
}

// GatewayFunc позволяет использовать функцию как Gateway
type GatewayFunc func(ctx context.Context, token string, payload json.RawMessage) (*Ack, error)

func (f GatewayFunc) Push(ctx context.Context, token string, payload json.RawMessage) (*Ack, error) {
	return f(ctx, token, payload)
}

// CredentialSource возвращает токен текущего пользователя
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// DeriveFunc заполняет вычисляемые поля данных перед сохранением
type DeriveFunc func(record.Payload) (record.Payload, error)

// SyncError - неудачная попытка синхронизации записи. Не фатальна.
type SyncError struct {
	Stream  record.Stream
	LocalID string
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("синхронизация %s/%s не удалась: %v", e.Stream, e.LocalID, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func (e *SyncError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Stream  record.Stream `json:"stream"`
		LocalID string        `json:"local_id"`
		Error   string        `json:"error"`
	}{e.Stream, e.LocalID, e.Err.Error()})
}
