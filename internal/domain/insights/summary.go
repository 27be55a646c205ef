// Package insights считает недельную сводку по локальным отметкам и тренировкам.
package insights

import (
	"fmt"
	"time"

	"equilibria/internal/domain/record"
)

// Window - длина окна сводки
const Window = 7 * 24 * time.Hour

// Risk - уровень риска перетренированности
type Risk string

const (
	RiskInsufficientData Risk = "insufficient_data"
	RiskLow              Risk = "low"
	RiskMedium           Risk = "medium"
	RiskHigh             Risk = "high"
)

// Thresholds - пороги классификации риска.
// HighVolumeAbove - недельный объём (подходы), выше которого объём считается высоким.
type Thresholds struct {
	HighBelow       float64
	MediumBelow     float64
	MinWorkouts     int
	HighVolumeAbove int
}

func DefaultThresholds() Thresholds {
	return Thresholds{HighBelow: 5, MediumBelow: 7, MinWorkouts: 2, HighVolumeAbove: 80}
}

func (t Thresholds) Validate() error {
	if t.HighBelow > t.MediumBelow {
		return fmt.Errorf("порог высокого риска %.1f выше порога среднего %.1f", t.HighBelow, t.MediumBelow)
	}
	if t.MinWorkouts < 0 {
		return fmt.Errorf("минимальное число тренировок не может быть отрицательным")
	}
	if t.HighVolumeAbove < 0 {
		return fmt.Errorf("порог высокого объёма не может быть отрицательным")
	}
	return nil
}

// DaySummary - показатели одного дня недели
type DaySummary struct {
	Weekday      time.Weekday `json:"weekday"`
	AverageScore *float64     `json:"average_score"`
	CheckIns     int          `json:"checkins"`
	Workouts     int          `json:"workouts"`
	TotalVolume  int          `json:"total_volume"`
}

// WeeklySummary - недельная сводка. AverageRecoveryScore равен nil, если отметок за окно нет.
// HighVolume выставляется, когда TotalVolume строго больше порога.
type WeeklySummary struct {
	From                 time.Time `json:"from"`
	To                   time.Time `json:"to"`
	AverageRecoveryScore *float64  `json:"average_recovery_score"`
	CheckInCount         int       `json:"checkin_count"`
	WorkoutCount         int       `json:"workout_count"`
	RestDays             int       `json:"rest_days"`
	TotalVolume          int       `json:"total_volume"`
	HighVolume           bool      `json:"high_volume"`
	OvertrainingRisk     Risk      `json:"overtraining_risk"`
	PendingSyncCount     int       `json:"pending_sync_count"`
	// Days от понедельника до воскресенья
	Days [7]DaySummary `json:"days"`
}

// Summarizer - чистая функция от записей и момента времени
type Summarizer struct {
	thresholds Thresholds
}

func NewSummarizer(t Thresholds) *Summarizer {
	return &Summarizer{thresholds: t}
}

// Summarize считает сводку за окно [now-7 суток, now] включительно.
// Календарные даты берутся в часовом поясе now.
func (s *Summarizer) Summarize(checkins []record.Typed[record.CheckIn], workouts []record.Typed[record.Workout], now time.Time) WeeklySummary {
	from := now.Add(-Window)
	loc := now.Location()

	sum := WeeklySummary{From: from, To: now}
	for i := range sum.Days {
		sum.Days[i].Weekday = mondayFirst(i)
	}

	var (
		scoreTotal float64
		dates      = make(map[civilDate]struct{})
		dayScores  [7]float64
	)

	for _, c := range checkins {
		if !c.Synced {
			sum.PendingSyncCount++
		}
		if !inWindow(c.CreatedAt, from, now) {
			continue
		}
		local := c.CreatedAt.In(loc)
		sum.CheckInCount++
		scoreTotal += c.Payload.RecoveryScore
		dates[dateOf(local)] = struct{}{}

		idx := dayIndex(local.Weekday())
		sum.Days[idx].CheckIns++
		dayScores[idx] += c.Payload.RecoveryScore
	}

	for _, w := range workouts {
		if !w.Synced {
			sum.PendingSyncCount++
		}
		if !inWindow(w.CreatedAt, from, now) {
			continue
		}
		sum.WorkoutCount++
		sum.TotalVolume += w.Payload.TotalVolume

		idx := dayIndex(w.CreatedAt.In(loc).Weekday())
		sum.Days[idx].Workouts++
		sum.Days[idx].TotalVolume += w.Payload.TotalVolume
	}

	if sum.CheckInCount > 0 {
		avg := scoreTotal / float64(sum.CheckInCount)
		sum.AverageRecoveryScore = &avg
	}
	for i := range sum.Days {
		if n := sum.Days[i].CheckIns; n > 0 {
			avg := dayScores[i] / float64(n)
			sum.Days[i].AverageScore = &avg
		}
	}

	sum.RestDays = max(0, 7-len(dates))
	sum.HighVolume = sum.TotalVolume > s.thresholds.HighVolumeAbove
	sum.OvertrainingRisk = s.classify(sum.AverageRecoveryScore, sum.WorkoutCount)
	return sum
}

func (s *Summarizer) classify(avg *float64, workouts int) Risk {
	if avg == nil {
		return RiskInsufficientData
	}
	enough := workouts >= s.thresholds.MinWorkouts
	switch {
	case *avg < s.thresholds.HighBelow && enough:
		return RiskHigh
	case *avg < s.thresholds.MediumBelow && enough:
		return RiskMedium
	default:
		return RiskLow
	}
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

// dayIndex переводит день недели в индекс с понедельника
func dayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func mondayFirst(i int) time.Weekday {
	return time.Weekday((i + 1) % 7)
}
