package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"equilibria/internal/domain/record"
)

// ErrAmbiguousID - под префикс подходит несколько записей
var ErrAmbiguousID = errors.New("ambiguous id prefix")

// SubmitCheckIn сохраняет утреннюю отметку и пытается отправить её на сервер
func (a *App) SubmitCheckIn(ctx context.Context, in record.CheckIn) (*record.Record, error) {
	return a.reconciler.RecordAndSync(ctx, a.Owner(), in, a.now())
}

// SaveWorkout сохраняет тренировку
func (a *App) SaveWorkout(ctx context.Context, w record.Workout) (*record.Record, error) {
	return a.reconciler.RecordAndSync(ctx, a.Owner(), w, a.now())
}

// SaveTemplate сохраняет тренировку из встроенного шаблона
func (a *App) SaveTemplate(ctx context.Context, name string) (*record.Record, error) {
	tpl, ok := record.FindTemplate(name)
	if !ok {
		return nil, fmt.Errorf("%w: шаблон %q не найден", record.ErrInvalidData, name)
	}
	return a.SaveWorkout(ctx, tpl.Workout())
}

// LogSession сохраняет выполненную тренировку. Ссылка на тренировку
// заменяется серверным id, если тренировка уже синхронизирована.
// Локальный id можно указать уникальным префиксом, как его показывает workout list.
func (a *App) LogSession(ctx context.Context, s record.WorkoutSession) (*record.Record, error) {
	rec, err := a.findWorkout(ctx, s.WorkoutID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		workouts, err := a.repo.ReadAll(ctx, a.Owner(), record.StreamWorkouts)
		if err != nil {
			return nil, err
		}
		i, err := matchLocalID(workouts, s.WorkoutID)
		switch {
		case errors.Is(err, ErrAmbiguousID):
			return nil, err
		case err == nil:
			rec = &workouts[i]
		}
	}
	switch {
	case rec != nil && rec.Synced:
		s.WorkoutID = rec.RemoteID
	case rec != nil:
		s.WorkoutID = rec.LocalID
	case !isRemoteRef(s.WorkoutID):
		return nil, fmt.Errorf("%w: тренировка %q не найдена", record.ErrInvalidData, s.WorkoutID)
	}
	return a.reconciler.RecordAndSync(ctx, a.Owner(), s, a.now())
}

// SyncWearable сохраняет показатели носимого устройства
func (a *App) SyncWearable(ctx context.Context, w record.WearableSample) (*record.Record, error) {
	return a.reconciler.RecordAndSync(ctx, a.Owner(), w, a.now())
}

func (a *App) ListCheckIns(ctx context.Context, limit int) ([]record.Typed[record.CheckIn], error) {
	return list[record.CheckIn](ctx, a, record.StreamCheckIns, limit)
}

func (a *App) ListWorkouts(ctx context.Context, limit int) ([]record.Typed[record.Workout], error) {
	return list[record.Workout](ctx, a, record.StreamWorkouts, limit)
}

func (a *App) ListSessions(ctx context.Context, limit int) ([]record.Typed[record.WorkoutSession], error) {
	return list[record.WorkoutSession](ctx, a, record.StreamSessions, limit)
}

func (a *App) ListWearables(ctx context.Context, limit int) ([]record.Typed[record.WearableSample], error) {
	return list[record.WearableSample](ctx, a, record.StreamWearables, limit)
}

// GetSession ищет выполненную тренировку по локальному id или его уникальному префиксу
func (a *App) GetSession(ctx context.Context, ref string) (*record.Typed[record.WorkoutSession], error) {
	records, err := a.repo.ReadAll(ctx, a.Owner(), record.StreamSessions)
	if err != nil {
		return nil, err
	}
	i, err := matchLocalID(records, ref)
	if err != nil {
		return nil, fmt.Errorf("выполненная тренировка %s: %w", ref, err)
	}
	sessions, err := record.Decode[record.WorkoutSession](records[i : i+1])
	if err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

// matchLocalID находит запись по полному локальному id, а если такой нет,
// по уникальному префиксу
func matchLocalID(records []record.Record, ref string) (int, error) {
	if ref == "" {
		return -1, record.ErrNotFound
	}
	for i := range records {
		if records[i].LocalID == ref {
			return i, nil
		}
	}

	found := -1
	for i := range records {
		if !strings.HasPrefix(records[i].LocalID, ref) {
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf("%w: %q, укажите больше символов", ErrAmbiguousID, ref)
		}
		found = i
	}
	if found < 0 {
		return -1, record.ErrNotFound
	}
	return found, nil
}

// list читает снимок потока от новых к старым. limit <= 0 - без ограничения.
func list[T record.Payload](ctx context.Context, a *App, stream record.Stream, limit int) ([]record.Typed[T], error) {
	records, err := a.repo.ReadAll(ctx, a.Owner(), stream)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return record.Decode[T](records)
}
