// Package recovery оценивает готовность к нагрузке по ежедневной отметке.
package recovery

import (
	"fmt"
	"math"

	"equilibria/internal/domain/record"
)

const (
	MinScore = 1
	MaxScore = 10
)

// Уровни рекомендуемой нагрузки
const (
	IntensityHeavy    = "Heavy"
	IntensityModerate = "Moderate"
	IntensityLight    = "Light/Rest"
)

// Weights - коэффициенты формулы оценки восстановления.
// HRV учитывается в долях от 100 мс.
type Weights struct {
	Sleep    float64
	Soreness float64
	Energy   float64
	HRV      float64
}

// DefaultWeights возвращает коэффициенты по умолчанию
func DefaultWeights() Weights {
	return Weights{Sleep: 0.4, Soreness: 0.3, Energy: 0.3, HRV: 2}
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"sleep": w.Sleep, "soreness": w.Soreness, "energy": w.Energy, "hrv": w.HRV,
	} {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("некорректный коэффициент %s: %v", name, v)
		}
	}
	return nil
}

// Scorer считает локальную оценку восстановления
type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score возвращает оценку от 1 до 10
func (s *Scorer) Score(c record.CheckIn) float64 {
	raw := s.weights.Sleep*c.SleepHours +
		s.weights.Soreness*float64(10-c.SorenessLevel) +
		s.weights.Energy*float64(c.EnergyLevel)
	if c.HRVRmssd != nil {
		raw += (*c.HRVRmssd / 100) * s.weights.HRV
	}

	return math.Min(MaxScore, math.Max(MinScore, math.Round(raw)))
}

// Recommend переводит оценку в рекомендуемую нагрузку
func Recommend(score float64) string {
	switch {
	case score >= 8:
		return IntensityHeavy
	case score >= 5:
		return IntensityModerate
	default:
		return IntensityLight
	}
}

// Derive заполняет вычисляемые поля отметки перед сохранением
func (s *Scorer) Derive(p record.Payload) (record.Payload, error) {
	var c record.CheckIn
	switch v := p.(type) {
	case record.CheckIn:
		c = v
	case *record.CheckIn:
		c = *v
	default:
		return nil, fmt.Errorf("%w: ожидалась отметка, получено %T", record.ErrInvalidData, p)
	}

	c.RecoveryScore = s.Score(c)
	c.RecommendedIntensity = Recommend(c.RecoveryScore)
	return c, nil
}
