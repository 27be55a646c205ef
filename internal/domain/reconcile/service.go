// Package reconcile сохраняет записи локально и синхронизирует их с сервером
// по возможности, не делая сеть условием сохранности данных.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"equilibria/internal/domain/record"
)

const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 5
	DefaultBatchSize   = 50
)

// Service - реконсилятор: локальная запись, затем одна попытка синхронизации
type Service struct {
	repo        record.Repository
	creds       CredentialSource
	gateways    map[record.Stream]Gateway
	derivers    map[record.Stream]DeriveFunc
	metrics     *Metrics
	log         *slog.Logger
	newID       func() string
	timeout     time.Duration
	maxAttempts int
}

type Option func(*Service)

// WithGateway регистрирует шлюз для потока. Без шлюза запись остаётся локальной.
func WithGateway(stream record.Stream, gw Gateway) Option {
	return func(s *Service) { s.gateways[stream] = gw }
}

// WithDeriver регистрирует вычисление производных полей для потока
func WithDeriver(stream record.Stream, fn DeriveFunc) Option {
	return func(s *Service) { s.derivers[stream] = fn }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimeout ограничивает длительность одного обращения к шлюзу
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxAttempts ограничивает число повторных попыток одной записи при дозагрузке
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New создаёт реконсилятор
func New(repo record.Repository, creds CredentialSource, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		creds:       creds,
		gateways:    make(map[record.Stream]Gateway),
		derivers:    make(map[record.Stream]DeriveFunc),
		log:         log.With(slog.String("component", "reconcile")),
		newID:       func() string { return uuid.NewString() },
		timeout:     DefaultTimeout,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordAndSync сохраняет новую запись и делает ровно одну попытку синхронизации.
// Ошибка возвращается только при отказе локального хранилища или невалидных данных;
// сбои сервера поглощаются, и запись возвращается несинхронизированной.
func (s *Service) RecordAndSync(ctx context.Context, owner string, payload record.Payload, now time.Time) (*record.Record, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: пустые данные", record.ErrInvalidData)
	}
	stream := payload.Stream()

	if derive, ok := s.derivers[stream]; ok {
		derived, err := derive(payload)
		if err != nil {
			return nil, err
		}
		payload = derived
	}

	data, err := record.EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	rec := record.Record{
		LocalID:   s.newID(),
		Stream:    stream,
		Payload:   data,
		CreatedAt: now,
	}

	if err := s.repo.Append(ctx, owner, stream, rec); err != nil {
		return nil, asStorageError("append", stream, err)
	}
	s.metrics.recordStored(stream)

	ack, serr := s.push(ctx, rec)
	if serr != nil {
		s.log.Warn("Запись сохранена локально, синхронизация не удалась",
			slog.String("stream", stream.String()),
			slog.String("local_id", rec.LocalID),
			slog.String("error", serr.Err.Error()),
		)
		return &rec, nil
	}

	updated, err := s.apply(ctx, owner, rec, ack, false)
	if err != nil {
		return &rec, err
	}

	s.log.Debug("Запись синхронизирована",
		slog.String("stream", stream.String()),
		slog.String("local_id", updated.LocalID),
		slog.String("remote_id", updated.RemoteID),
	)
	return &updated, nil
}

// push выполняет одно обращение к шлюзу потока
func (s *Service) push(ctx context.Context, rec record.Record) (*Ack, *SyncError) {
	fail := func(outcome string, started time.Time, err error) (*Ack, *SyncError) {
		s.metrics.recordAttempt(rec.Stream, outcome, time.Since(started).Seconds())
		return nil, &SyncError{Stream: rec.Stream, LocalID: rec.LocalID, Err: err}
	}

	started := time.Now()
	gw, ok := s.gateways[rec.Stream]
	if !ok {
		return fail(OutcomeFailed, started, fmt.Errorf("%w: %s", ErrNoGateway, rec.Stream))
	}

	token, err := s.token(ctx)
	if err != nil {
		return fail(OutcomeNoCredential, started, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ack, err := gw.Push(callCtx, token, rec.Payload)
	if err != nil {
		if IsRejection(err) {
			return fail(OutcomeRejected, started, err)
		}
		return fail(OutcomeFailed, started, err)
	}
	if ack == nil || ack.RemoteID == "" {
		return fail(OutcomeRejected, started, fmt.Errorf("%w: нет серверного id", ErrMalformedAck))
	}

	s.metrics.recordAttempt(rec.Stream, OutcomeSynced, time.Since(started).Seconds())
	return ack, nil
}

func (s *Service) token(ctx context.Context) (string, error) {
	if s.creds == nil {
		return "", ErrNoCredential
	}
	token, err := s.creds.Token(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrNoCredential, err)
	}
	if token == "" {
		return "", ErrNoCredential
	}
	return token, nil
}

// apply записывает результат попытки в хранилище одним обновлением.
// Уже синхронизированная запись не меняется: remote_id неизменяем, synced не откатывается.
func (s *Service) apply(ctx context.Context, owner string, rec record.Record, ack *Ack, countAttempt bool) (record.Record, error) {
	var updated record.Record
	err := s.repo.UpdateAt(ctx, owner, rec.Stream, rec.LocalID, func(r *record.Record) error {
		if countAttempt {
			r.SyncAttempts++
		}
		if ack != nil && !r.Synced {
			merged, err := record.MergeFields(r.Payload, ack.Fields)
			if err != nil {
				return err
			}
			r.Payload = merged
			r.RemoteID = ack.RemoteID
			r.Synced = true
		}
		updated = r.Clone()
		return nil
	})
	if err != nil {
		return rec, asStorageError("update", rec.Stream, err)
	}
	return updated, nil
}

// ResetAttempts обнуляет счётчик попыток несинхронизированных записей, чтобы
// следующая дозагрузка снова их отправила. Без потоков сбрасываются все.
func (s *Service) ResetAttempts(ctx context.Context, owner string, streams ...record.Stream) (int, error) {
	if len(streams) == 0 {
		streams = record.Streams()
	}

	reset := 0
	for _, stream := range streams {
		records, err := s.repo.ReadAll(ctx, owner, stream)
		if err != nil {
			return reset, asStorageError("read", stream, err)
		}
		for _, rec := range records {
			if rec.Synced || rec.SyncAttempts == 0 {
				continue
			}
			err := s.repo.UpdateAt(ctx, owner, stream, rec.LocalID, func(r *record.Record) error {
				r.SyncAttempts = 0
				return nil
			})
			if err != nil {
				return reset, asStorageError("update", stream, err)
			}
			reset++
		}
	}

	if reset > 0 {
		s.log.Info("Счётчики попыток сброшены", slog.String("owner", owner), slog.Int("records", reset))
	}
	return reset, nil
}

func asStorageError(op string, stream record.Stream, err error) error {
	if record.IsStorageError(err) {
		return err
	}
	return &record.StorageError{Op: op, Stream: stream, Err: err}
}
