package client

import (
	"time"

	"equilibria/internal/domain/insights"
	"equilibria/internal/domain/reconcile"
	"equilibria/internal/domain/record"
)

// ScoreSource - откуда взята оценка восстановления на главном экране
type ScoreSource string

const (
	SourceRemote ScoreSource = "remote"
	SourceLocal  ScoreSource = "local"
	SourceNone   ScoreSource = "none"
)

// Dashboard - данные главного экрана
type Dashboard struct {
	Score          *float64               `json:"score"`
	Recommendation string                 `json:"recommendation,omitempty"`
	Source         ScoreSource            `json:"source"`
	ScoreDate      time.Time              `json:"score_date,omitempty"`
	Offline        bool                   `json:"offline"`
	Pending        map[record.Stream]int  `json:"pending"`
	PendingTotal   int                    `json:"pending_total"`
	Weekly         insights.WeeklySummary `json:"weekly"`
}

// SyncStats - накопленная статистика дозагрузок, хранится в sync_stats.json
type SyncStats struct {
	TotalSyncs      int       `json:"total_syncs"`
	LastSuccessful  time.Time `json:"last_successful"`
	LastFailed      time.Time `json:"last_failed"`
	TotalUploaded   int       `json:"total_uploaded"`
	TotalErrors     int       `json:"total_errors"`
	AvgSyncDuration float64   `json:"avg_sync_duration"`
}

// SyncResult - результат одной дозагрузки всех потоков
type SyncResult struct {
	Success   bool                    `json:"success"`
	Streams   []reconcile.DrainResult `json:"streams"`
	Uploaded  int                     `json:"uploaded"`
	Failed    int                     `json:"failed"`
	Exhausted int                     `json:"exhausted"`
	Duration  time.Duration           `json:"duration"`
	StartTime time.Time               `json:"start_time"`
	EndTime   time.Time               `json:"end_time"`
}

// SyncStatus - состояние синхронизации для команды sync --status
type SyncStatus struct {
	Authenticated bool                  `json:"authenticated"`
	Owner         string                `json:"owner"`
	Pending       map[record.Stream]int `json:"pending"`
	Stats         SyncStats             `json:"stats"`
	Attempts      []reconcile.Sample    `json:"attempts"`
}
