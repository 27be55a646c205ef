package record

import (
	"fmt"
	"math"
)

// CheckIn - ежедневная отметка о самочувствии
type CheckIn struct {
	SleepHours    float64 `json:"sleep_hours"`
	SleepQuality  int     `json:"sleep_quality"`
	SorenessLevel int     `json:"soreness_level"`
	EnergyLevel   int     `json:"energy_level"`
	StressLevel   int     `json:"stress_level"`
	// HRVRmssd в миллисекундах, nil если пользователь не указал
	HRVRmssd *float64 `json:"hrv_rmssd,omitempty"`

	RecoveryScore        float64 `json:"recovery_score"`
	RecommendedIntensity string  `json:"recommended_intensity,omitempty"`
}

func (c CheckIn) Stream() Stream {
	return StreamCheckIns
}

// Validate проверяет данные отметки
func (c CheckIn) Validate() error {
	if math.IsNaN(c.SleepHours) || c.SleepHours <= 0 || c.SleepHours > 24 {
		return fmt.Errorf("%w: часы сна должны быть в диапазоне (0, 24]", ErrInvalidData)
	}
	if err := scale("soreness_level", c.SorenessLevel, 1, 10); err != nil {
		return err
	}
	if err := scale("energy_level", c.EnergyLevel, 1, 10); err != nil {
		return err
	}
	if err := scale("sleep_quality", c.SleepQuality, 0, 10); err != nil {
		return err
	}
	if err := scale("stress_level", c.StressLevel, 0, 10); err != nil {
		return err
	}
	if c.HRVRmssd != nil && (math.IsNaN(*c.HRVRmssd) || *c.HRVRmssd < 0) {
		return fmt.Errorf("%w: HRV не может быть отрицательным", ErrInvalidData)
	}
	return nil
}

func scale(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s должно быть от %d до %d", ErrInvalidData, field, lo, hi)
	}
	return nil
}
