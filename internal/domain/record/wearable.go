package record

import (
	"fmt"
	"strings"
	"time"
)

// WearableSample - показания носимого устройства за день
type WearableSample struct {
	Source               string         `json:"source"`
	MeasurementDate      time.Time      `json:"measurement_date"`
	HRVRmssd             float64        `json:"hrv_rmssd"`
	HRVSdnn              float64        `json:"hrv_sdnn"`
	RestingHeartRate     int            `json:"resting_heart_rate"`
	AvgHeartRate         int            `json:"avg_heart_rate"`
	SleepDurationMinutes int            `json:"sleep_duration_minutes"`
	DeepSleepMinutes     int            `json:"deep_sleep_minutes"`
	RemSleepMinutes      int            `json:"rem_sleep_minutes"`
	Steps                int            `json:"steps"`
	ActiveCalories       int            `json:"active_calories"`
	RawData              map[string]any `json:"raw_data"`
}

func (w WearableSample) Stream() Stream {
	return StreamWearables
}

func (w WearableSample) Validate() error {
	if strings.TrimSpace(w.Source) == "" {
		return fmt.Errorf("%w: не указан источник данных", ErrInvalidData)
	}
	if w.MeasurementDate.IsZero() {
		return fmt.Errorf("%w: не указана дата измерения", ErrInvalidData)
	}
	if w.HRVRmssd < 0 || w.HRVSdnn < 0 || w.RestingHeartRate < 0 || w.AvgHeartRate < 0 ||
		w.SleepDurationMinutes < 0 || w.DeepSleepMinutes < 0 || w.RemSleepMinutes < 0 ||
		w.Steps < 0 || w.ActiveCalories < 0 {
		return fmt.Errorf("%w: показания не могут быть отрицательными", ErrInvalidData)
	}
	if w.DeepSleepMinutes+w.RemSleepMinutes > w.SleepDurationMinutes && w.SleepDurationMinutes > 0 {
		return fmt.Errorf("%w: фазы сна длиннее общего сна", ErrInvalidData)
	}
	return nil
}
