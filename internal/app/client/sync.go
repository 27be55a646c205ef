package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"equilibria/internal/domain/reconcile"
	"equilibria/internal/domain/record"
)

const statsFile = "sync_stats.json"

// ErrSyncInProgress - дозагрузка уже выполняется
var ErrSyncInProgress = errors.New("sync already in progress")

// SyncService управляет дозагрузкой несинхронизированных записей и ведёт статистику
type SyncService struct {
	app       *App
	log       *slog.Logger
	mu        sync.RWMutex
	isSyncing bool
	stats     *SyncStats
}

func NewSyncService(app *App) *SyncService {
	s := &SyncService{
		app:   app,
		log:   app.log.With(slog.String("component", "sync")),
		stats: &SyncStats{},
	}
	if stats, err := s.loadStats(); err == nil {
		s.stats = stats
	} else {
		s.log.Debug("Статистика синхронизации не загружена", slog.String("error", err.Error()))
	}
	return s
}

// Sync дозагружает все потоки текущего владельца. Без входа возвращает
// reconcile.ErrNoCredential, не тратя попытки.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	result := &SyncResult{StartTime: s.app.now()}
	var err error
	for _, owner := range s.owners() {
		var streams []reconcile.DrainResult
		streams, err = s.app.reconciler.DrainAll(ctx, owner, s.app.config.DrainBatchSize)
		result.Streams = append(result.Streams, streams...)
		if err != nil {
			break
		}
	}
	result.EndTime = s.app.now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	for _, st := range result.Streams {
		result.Uploaded += st.Synced
		result.Failed += st.Failed
		result.Exhausted += st.Exhausted
	}
	result.Success = err == nil && result.Failed == 0

	if errors.Is(err, reconcile.ErrNoCredential) {
		return result, err
	}

	s.updateStats(result)
	if err != nil {
		return result, fmt.Errorf("ошибка синхронизации: %w", err)
	}

	s.log.Info("Синхронизация завершена",
		slog.Int("uploaded", result.Uploaded),
		slog.Int("failed", result.Failed),
		slog.Int("exhausted", result.Exhausted),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

// RetryExhausted обнуляет счётчики попыток записей, отвергнутых сервером,
// и сразу запускает дозагрузку
func (s *SyncService) RetryExhausted(ctx context.Context) (*SyncResult, error) {
	if !s.app.IsAuthenticated() {
		return nil, reconcile.ErrNoCredential
	}

	total := 0
	for _, owner := range s.owners() {
		n, err := s.app.reconciler.ResetAttempts(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("ошибка сброса попыток: %w", err)
		}
		total += n
	}
	s.log.Info("Записи возвращены в очередь", slog.Int("records", total))
	return s.Sync(ctx)
}

// owners - чьи записи дозагружаются: текущего пользователя и, после входа,
// записи, сделанные на этом устройстве без входа. Они отправляются в
// аккаунт вошедшего пользователя, но остаются под владельцем "default".
func (s *SyncService) owners() []string {
	owner := s.app.Owner()
	if owner == record.AnonymousOwner {
		return []string{owner}
	}
	return []string{owner, record.AnonymousOwner}
}

// Status собирает состояние синхронизации
func (s *SyncService) Status(ctx context.Context) (*SyncStatus, error) {
	pending, err := s.app.reconciler.PendingCount(ctx, s.app.Owner())
	if err != nil {
		return nil, err
	}

	attempts, err := reconcile.AttemptSamples(s.app.registry)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения метрик: %w", err)
	}

	return &SyncStatus{
		Authenticated: s.app.IsAuthenticated(),
		Owner:         s.app.Owner(),
		Pending:       pending,
		Stats:         s.GetStats(),
		Attempts:      attempts,
	}, nil
}

// StartAutoSync периодически запускает дозагрузку до отмены контекста
func (s *SyncService) StartAutoSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.log.Info("Автоматическая синхронизация отключена")
		return
	}

	s.log.Info("Запуск автоматической синхронизации", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Автоматическая синхронизация остановлена")
			return
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				s.log.Warn("Ошибка автоматической синхронизации", slog.String("error", err.Error()))
			}
		}
	}
}

// GetStats возвращает копию статистики
func (s *SyncService) GetStats() SyncStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.stats
}

// IsSyncing проверяет, выполняется ли дозагрузка
func (s *SyncService) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// ResetStats сбрасывает статистику синхронизации
func (s *SyncService) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = &SyncStats{}
	s.saveStats()
}

func (s *SyncService) updateStats(result *SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalSyncs++
	if result.Success {
		s.stats.LastSuccessful = result.EndTime
	} else {
		s.stats.LastFailed = result.EndTime
	}
	s.stats.TotalUploaded += result.Uploaded
	s.stats.TotalErrors += result.Failed

	n := float64(s.stats.TotalSyncs)
	s.stats.AvgSyncDuration = (s.stats.AvgSyncDuration*(n-1) + result.Duration.Seconds()) / n

	s.saveStats()
}

func (s *SyncService) statsPath() string {
	if s.app.config.ConfigDir == "" {
		return ""
	}
	return filepath.Join(s.app.config.ConfigDir, statsFile)
}

func (s *SyncService) loadStats() (*SyncStats, error) {
	path := s.statsPath()
	if path == "" {
		return nil, fmt.Errorf("каталог конфигурации не задан")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения статистики: %w", err)
	}

	var stats SyncStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("ошибка парсинга статистики: %w", err)
	}
	return &stats, nil
}

// saveStats вызывается под s.mu
func (s *SyncService) saveStats() {
	path := s.statsPath()
	if path == "" {
		return
	}

	data, err := json.MarshalIndent(s.stats, "", "  ")
	if err != nil {
		s.log.Error("Ошибка сериализации статистики", slog.String("error", err.Error()))
		return
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		s.log.Error("Ошибка записи статистики", slog.String("error", err.Error()))
	}
}
