package reconcile

import (
	"context"
	"errors"

	"golang.org/x/exp/slog"

	"equilibria/internal/domain/record"
)

// DrainResult - итог дозагрузки одного потока
type DrainResult struct {
	Owner     string        `json:"owner"`
	Stream    record.Stream `json:"stream"`
	Pending   int           `json:"pending"`
	Attempted int           `json:"attempted"`
	Synced    int           `json:"synced"`
	Failed    int           `json:"failed"`
	Exhausted int           `json:"exhausted"`
	Errors    []*SyncError  `json:"errors,omitempty"`
}

// Drain повторно отправляет несинхронизированные записи потока, от старых к новым.
// Каждая запись пробуется не более одного раза за вызов; записи, исчерпавшие
// лимит попыток, пропускаются. В лимит засчитываются только отказы сервера
// (IsRejection). limit <= 0 означает размер пакета по умолчанию.
func (s *Service) Drain(ctx context.Context, owner string, stream record.Stream, limit int) (DrainResult, error) {
	result := DrainResult{Owner: owner, Stream: stream}
	if limit <= 0 {
		limit = DefaultBatchSize
	}

	if _, ok := s.gateways[stream]; !ok {
		return result, ErrNoGateway
	}
	if _, err := s.token(ctx); err != nil {
		return result, err
	}

	records, err := s.repo.ReadAll(ctx, owner, stream)
	if err != nil {
		return result, asStorageError("read", stream, err)
	}

	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if rec.Synced {
			continue
		}
		result.Pending++

		if rec.SyncAttempts >= s.maxAttempts {
			result.Exhausted++
			s.metrics.recordAttempt(stream, OutcomeExhausted, 0)
			continue
		}
		if result.Attempted >= limit {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Attempted++
		ack, serr := s.push(ctx, rec)
		rejected := false
		if serr != nil {
			rejected = IsRejection(serr.Err)
			result.Failed++
			result.Errors = append(result.Errors, serr)
			s.log.Warn("Повторная синхронизация не удалась",
				slog.String("stream", stream.String()),
				slog.String("local_id", rec.LocalID),
				slog.Bool("rejected", rejected),
				slog.Int("attempts", rec.SyncAttempts),
				slog.String("error", serr.Err.Error()),
			)
		}

		if ack == nil && !rejected {
			continue
		}
		if _, err := s.apply(ctx, owner, rec, ack, true); err != nil {
			return result, err
		}
		if ack != nil {
			result.Synced++
		}
	}

	s.metrics.setPending(stream, result.Pending-result.Synced)
	s.log.Info("Дозагрузка потока завершена",
		slog.String("stream", stream.String()),
		slog.Int("attempted", result.Attempted),
		slog.Int("synced", result.Synced),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// DrainAll дозагружает все потоки, для которых зарегистрирован шлюз.
// Отсутствие учётных данных прерывает дозагрузку сразу.
func (s *Service) DrainAll(ctx context.Context, owner string, limit int) ([]DrainResult, error) {
	var results []DrainResult
	for _, stream := range record.Streams() {
		if _, ok := s.gateways[stream]; !ok {
			continue
		}
		res, err := s.Drain(ctx, owner, stream, limit)
		if err != nil {
			if errors.Is(err, ErrNoCredential) {
				return results, err
			}
			return append(results, res), err
		}
		results = append(results, res)
	}
	return results, nil
}

// PendingCount считает несинхронизированные записи по потокам
func (s *Service) PendingCount(ctx context.Context, owner string) (map[record.Stream]int, error) {
	out := make(map[record.Stream]int, len(record.Streams()))
	for _, stream := range record.Streams() {
		records, err := s.repo.ReadAll(ctx, owner, stream)
		if err != nil {
			return nil, asStorageError("read", stream, err)
		}
		for _, r := range records {
			if !r.Synced {
				out[stream]++
			}
		}
	}
	return out, nil
}
