package insights

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equilibria/internal/domain/record"
)

// среда, 4 марта 2026
var now = time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)

func checkIn(at time.Time, score float64, synced bool) record.Typed[record.CheckIn] {
	return record.Typed[record.CheckIn]{
		LocalID:   at.String(),
		CreatedAt: at,
		Synced:    synced,
		Payload:   record.CheckIn{SleepHours: 7, SorenessLevel: 3, EnergyLevel: 7, RecoveryScore: score},
	}
}

func workout(at time.Time, volume int, synced bool) record.Typed[record.Workout] {
	return record.Typed[record.Workout]{
		LocalID:   at.String(),
		CreatedAt: at,
		Synced:    synced,
		Payload:   record.Workout{Name: "w", TotalVolume: volume},
	}
}

func TestSummarize_VolumeAndBoundaryAverage(t *testing.T) {
	// Arrange
	checkins := []record.Typed[record.CheckIn]{
		checkIn(now.Add(-1*time.Hour), 8, true),
		checkIn(now.Add(-25*time.Hour), 7, true),
		checkIn(now.Add(-49*time.Hour), 6, true),
	}
	workouts := []record.Typed[record.Workout]{
		workout(now.Add(-2*time.Hour), 20, true),
		workout(now.Add(-26*time.Hour), 30, true),
		workout(now.Add(-50*time.Hour), 10, true),
	}

	// Act
	got := NewSummarizer(DefaultThresholds()).Summarize(checkins, workouts, now)

	// Assert
	assert.Equal(t, 60, got.TotalVolume)
	assert.Equal(t, 3, got.WorkoutCount)
	require.NotNil(t, got.AverageRecoveryScore)
	assert.Equal(t, 7.0, *got.AverageRecoveryScore)
	// среднее ровно 7 не меньше 7, поэтому риск низкий
	assert.Equal(t, RiskLow, got.OvertrainingRisk)
	assert.Equal(t, 4, got.RestDays)
	assert.Zero(t, got.PendingSyncCount)
}

func TestSummarize_EmptyWeek(t *testing.T) {
	old := checkIn(now.Add(-8*24*time.Hour), 2, false)
	workouts := []record.Typed[record.Workout]{
		workout(now.Add(-time.Hour), 30, true),
		workout(now.Add(-2*time.Hour), 30, false),
	}

	got := NewSummarizer(DefaultThresholds()).Summarize([]record.Typed[record.CheckIn]{old}, workouts, now)

	assert.Nil(t, got.AverageRecoveryScore)
	assert.Equal(t, RiskInsufficientData, got.OvertrainingRisk)
	assert.Equal(t, 7, got.RestDays)
	assert.Equal(t, 2, got.WorkoutCount)
	// несинхронизированные записи считаются за всё время
	assert.Equal(t, 2, got.PendingSyncCount)
	for _, d := range got.Days {
		assert.Nil(t, d.AverageScore)
	}

	none := NewSummarizer(DefaultThresholds()).Summarize(nil, nil, now)
	assert.Nil(t, none.AverageRecoveryScore)
	assert.Equal(t, RiskInsufficientData, none.OvertrainingRisk)
	assert.Zero(t, none.TotalVolume)
}

func TestSummarize_Risk(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		workouts int
		want     Risk
	}{
		{name: "high", scores: []float64{4, 4}, workouts: 2, want: RiskHigh},
		{name: "high needs enough workouts", scores: []float64{4, 4}, workouts: 1, want: RiskLow},
		{name: "medium", scores: []float64{6, 6}, workouts: 3, want: RiskMedium},
		{name: "average five is medium", scores: []float64{5}, workouts: 2, want: RiskMedium},
		{name: "low", scores: []float64{9}, workouts: 5, want: RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checkins []record.Typed[record.CheckIn]
			for i, s := range tt.scores {
				checkins = append(checkins, checkIn(now.Add(-time.Duration(i+1)*time.Hour), s, true))
			}
			var workouts []record.Typed[record.Workout]
			for i := 0; i < tt.workouts; i++ {
				workouts = append(workouts, workout(now.Add(-time.Duration(i+1)*time.Hour), 10, true))
			}

			got := NewSummarizer(DefaultThresholds()).Summarize(checkins, workouts, now)

			assert.Equal(t, tt.want, got.OvertrainingRisk)
		})
	}
}

func TestSummarize_WindowBounds(t *testing.T) {
	checkins := []record.Typed[record.CheckIn]{
		checkIn(now, 9, true),
		checkIn(now.Add(-Window), 3, true),
		checkIn(now.Add(-Window-time.Nanosecond), 1, true),
		checkIn(now.Add(time.Second), 1, true),
	}

	got := NewSummarizer(DefaultThresholds()).Summarize(checkins, nil, now)

	assert.Equal(t, 2, got.CheckInCount)
	require.NotNil(t, got.AverageRecoveryScore)
	assert.Equal(t, 6.0, *got.AverageRecoveryScore)
}

func TestSummarize_RestDaysUseLocalDates(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	localNow := time.Date(2026, 3, 4, 12, 0, 0, 0, loc)

	// 20:00 и 21:00 UTC 2 марта это уже 3 марта по местному времени
	checkins := []record.Typed[record.CheckIn]{
		checkIn(time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC), 7, true),
		checkIn(time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC), 7, true),
		checkIn(time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC), 7, true),
	}

	got := NewSummarizer(DefaultThresholds()).Summarize(checkins, nil, localNow)

	assert.Equal(t, 6, got.RestDays)
	assert.Equal(t, 3, got.Days[1].CheckIns, "вторник")
}

func TestSummarize_WeekdayBuckets(t *testing.T) {
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	checkins := []record.Typed[record.CheckIn]{
		checkIn(monday, 6, true),
		checkIn(monday.Add(time.Hour), 8, true),
	}
	workouts := []record.Typed[record.Workout]{
		workout(monday, 40, true),
		workout(monday.Add(48*time.Hour), 15, true),
	}

	got := NewSummarizer(DefaultThresholds()).Summarize(checkins, workouts, now)

	assert.Equal(t, time.Monday, got.Days[0].Weekday)
	assert.Equal(t, time.Sunday, got.Days[6].Weekday)
	require.NotNil(t, got.Days[0].AverageScore)
	assert.Equal(t, 7.0, *got.Days[0].AverageScore)
	assert.Equal(t, 40, got.Days[0].TotalVolume)
	assert.Equal(t, 15, got.Days[2].TotalVolume)
	assert.Equal(t, 1, got.Days[2].Workouts)
}

func TestSummarize_Deterministic(t *testing.T) {
	checkins := []record.Typed[record.CheckIn]{
		checkIn(now.Add(-time.Hour), 6.5, false),
		checkIn(now.Add(-30*time.Hour), 4, true),
	}
	workouts := []record.Typed[record.Workout]{workout(now.Add(-3*time.Hour), 90, false)}
	s := NewSummarizer(DefaultThresholds())

	first := s.Summarize(checkins, workouts, now)
	second := s.Summarize(checkins, workouts, now)

	assert.Equal(t, first, second)
	require.NotNil(t, first.AverageRecoveryScore)
	assert.False(t, math.IsNaN(*first.AverageRecoveryScore))
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{HighBelow: 8, MediumBelow: 7}.Validate())
	assert.Error(t, Thresholds{HighBelow: 5, MediumBelow: 7, MinWorkouts: -1}.Validate())
	assert.Error(t, Thresholds{HighBelow: 5, MediumBelow: 7, HighVolumeAbove: -1}.Validate())
}

func TestSummarize_HighVolume(t *testing.T) {
	tests := []struct {
		name    string
		volumes []int
		want    bool
	}{
		{name: "empty week", volumes: nil, want: false},
		{name: "exactly at threshold", volumes: []int{50, 30}, want: false},
		{name: "one above threshold", volumes: []int{50, 31}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var workouts []record.Typed[record.Workout]
			for i, v := range tt.volumes {
				workouts = append(workouts, workout(now.Add(-time.Duration(i+1)*time.Hour), v, true))
			}
			// вне окна и не учитывается
			workouts = append(workouts, workout(now.Add(-8*24*time.Hour), 500, true))

			// Act
			got := NewSummarizer(DefaultThresholds()).Summarize(nil, workouts, now)

			// Assert
			assert.Equal(t, tt.want, got.HighVolume)
		})
	}
}

func TestWeeklySummary_JSON(t *testing.T) {
	got := NewSummarizer(DefaultThresholds()).Summarize(
		[]record.Typed[record.CheckIn]{checkIn(now.Add(-time.Hour), 8, false)},
		[]record.Typed[record.Workout]{workout(now.Add(-time.Hour), 81, true)},
		now,
	)

	data, err := json.Marshal(got)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 8.0, doc["average_recovery_score"])
	assert.Equal(t, true, doc["high_volume"])
	assert.Equal(t, 1.0, doc["pending_sync_count"])
	assert.Equal(t, string(RiskLow), doc["overtraining_risk"])
	assert.NotContains(t, doc, "AverageRecoveryScore")

	days, ok := doc["days"].([]any)
	require.True(t, ok)
	require.Len(t, days, 7)
	assert.Contains(t, days[2], "total_volume")
}
