package fakeapi

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

type RecoveryInput struct {
	SleepHours    float64  `json:"sleep_hours" minimum:"0" maximum:"24"`
	SleepQuality  int      `json:"sleep_quality" minimum:"0" maximum:"10"`
	SorenessLevel int      `json:"soreness_level" minimum:"1" maximum:"10"`
	EnergyLevel   int      `json:"energy_level" minimum:"1" maximum:"10"`
	StressLevel   int      `json:"stress_level" minimum:"0" maximum:"10"`
	HRVRmssd      *float64 `json:"hrv_rmssd,omitempty"`
}

type LogRecoveryInput struct {
	Body RecoveryInput
}

type RecoveryBody struct {
	ID                   int       `json:"id"`
	Date                 time.Time `json:"date"`
	SleepHours           float64   `json:"sleep_hours"`
	SleepQuality         int       `json:"sleep_quality"`
	SorenessLevel        int       `json:"soreness_level"`
	EnergyLevel          int       `json:"energy_level"`
	StressLevel          int       `json:"stress_level"`
	RecoveryScore        float64   `json:"recovery_score"`
	RecommendedIntensity string    `json:"recommended_intensity"`
}

type RecoveryOutput struct {
	Body RecoveryBody
}

type LatestRecoveryInput struct{}

func (s *Server) setupRecoveryRoutes(api huma.API, authed huma.Middlewares) {
	huma.Register(api, huma.Operation{
		OperationID:   "recovery-log",
		Method:        http.MethodPost,
		Path:          "/api/v1/recovery/log",
		Summary:       "Log daily recovery data",
		Tags:          []string{"recovery"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
		Middlewares:   authed,
	}, s.logRecovery)

	huma.Register(api, huma.Operation{
		OperationID: "recovery-latest",
		Method:      http.MethodGet,
		Path:        "/api/v1/recovery/latest",
		Summary:     "Most recent recovery score",
		Tags:        []string{"recovery"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: authed,
	}, s.latestRecovery)
}

func (s *Server) logRecovery(ctx context.Context, in *LogRecoveryInput) (*RecoveryOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := userID(ctx)
	now := s.now()

	var hrv *float64
	for i := len(s.wearables) - 1; i >= 0; i-- {
		w := s.wearables[i]
		if w.UserID == uid && !w.Input.MeasurementDate.Before(now.Add(-24*time.Hour)) {
			v := w.Input.HRVRmssd
			hrv = &v
			break
		}
	}

	score := serverScore(in.Body, hrv)
	log := recoveryLog{
		ID:     s.id(),
		UserID: uid,
		Date:   now,
		Input:  in.Body,
		Score:  score,
		Advice: recommendation(score),
	}
	s.recoveries = append(s.recoveries, log)

	return &RecoveryOutput{Body: log.body()}, nil
}

func (s *Server) latestRecovery(ctx context.Context, _ *LatestRecoveryInput) (*RecoveryOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := userID(ctx)
	for i := len(s.recoveries) - 1; i >= 0; i-- {
		if s.recoveries[i].UserID == uid {
			return &RecoveryOutput{Body: s.recoveries[i].body()}, nil
		}
	}
	return nil, huma.Error404NotFound("No recovery data found")
}

func (r recoveryLog) body() RecoveryBody {
	return RecoveryBody{
		ID:                   r.ID,
		Date:                 r.Date,
		SleepHours:           r.Input.SleepHours,
		SleepQuality:         r.Input.SleepQuality,
		SorenessLevel:        r.Input.SorenessLevel,
		EnergyLevel:          r.Input.EnergyLevel,
		StressLevel:          r.Input.StressLevel,
		RecoveryScore:        r.Score,
		RecommendedIntensity: r.Advice,
	}
}

// serverScore - серверная формула: качество сна, обратная болезненность, энергия
// и вклад HRV из показаний носимого устройства за последние сутки
func serverScore(in RecoveryInput, wearableHRV *float64) float64 {
	sleep := float64(in.SleepQuality)
	score := 0.4*sleep + 0.3*float64(11-in.SorenessLevel) + 0.3*float64(in.EnergyLevel)
	if wearableHRV != nil && *wearableHRV > 0 {
		score += math.Min(*wearableHRV/50, 2)
	}
	score = math.Min(math.Max(score, 1), 10)
	return math.Round(score*10) / 10
}

func recommendation(score float64) string {
	switch {
	case score >= 8:
		return "Heavy"
	case score >= 5:
		return "Moderate"
	default:
		return "Light/Rest"
	}
}
