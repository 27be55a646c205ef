package client

import (
	"context"
	"errors"

	"golang.org/x/exp/slog"

	"equilibria/internal/app/client/credential"
	"equilibria/internal/domain/insights"
	"equilibria/internal/domain/recovery"
)

// WeeklySummary считает недельную сводку по локальным записям владельца
func (a *App) WeeklySummary(ctx context.Context) (insights.WeeklySummary, error) {
	checkins, err := a.ListCheckIns(ctx, 0)
	if err != nil {
		return insights.WeeklySummary{}, err
	}
	workouts, err := a.ListWorkouts(ctx, 0)
	if err != nil {
		return insights.WeeklySummary{}, err
	}
	return a.summarizer.Summarize(checkins, workouts, a.now()), nil
}

// Dashboard собирает данные главного экрана. Оценка берётся с сервера, если
// пользователь вошёл и сервер доступен, иначе из последней локальной отметки.
func (a *App) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{Source: SourceNone}

	if err := a.remoteScore(ctx, d); err != nil {
		d.Offline = true
		a.log.Warn("Не удалось получить оценку с сервера", slog.String("error", err.Error()))
	}

	if d.Source == SourceNone {
		checkins, err := a.ListCheckIns(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(checkins) > 0 {
			latest := checkins[0]
			score := latest.Payload.RecoveryScore
			d.Score = &score
			d.Recommendation = latest.Payload.RecommendedIntensity
			if d.Recommendation == "" {
				d.Recommendation = recovery.Recommend(score)
			}
			d.ScoreDate = latest.CreatedAt
			d.Source = SourceLocal
		}
	}

	pending, err := a.reconciler.PendingCount(ctx, a.Owner())
	if err != nil {
		return nil, err
	}
	d.Pending = pending
	for _, n := range pending {
		d.PendingTotal += n
	}

	weekly, err := a.WeeklySummary(ctx)
	if err != nil {
		return nil, err
	}
	d.Weekly = weekly
	return d, nil
}

// remoteScore заполняет оценку с сервера. Отсутствие входа и отсутствие данных
// на сервере ошибкой не считаются.
func (a *App) remoteScore(ctx context.Context, d *Dashboard) error {
	token, err := a.creds.Token(ctx)
	if errors.Is(err, credential.ErrNoCredential) {
		return nil
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.SyncTimeout)
	defer cancel()

	latest, err := a.api.LatestRecovery(ctx, token)
	if err != nil {
		return err
	}
	if latest == nil {
		return nil
	}

	score := latest.RecoveryScore
	d.Score = &score
	d.Recommendation = latest.RecommendedIntensity
	d.ScoreDate = latest.Date
	d.Source = SourceRemote
	return nil
}
