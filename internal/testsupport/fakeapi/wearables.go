package fakeapi

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

type WearableInput struct {
	Source               string         `json:"source" minLength:"1"`
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

type SyncWearableInput struct {
	Body WearableInput
}

type WearableOutput struct {
	Body struct {
		ID int `json:"id"`
		WearableInput
	}
}

func (s *Server) setupWearableRoutes(api huma.API, authed huma.Middlewares) {
	huma.Register(api, huma.Operation{
		OperationID:   "wearables-sync",
		Method:        http.MethodPost,
		Path:          "/api/v1/wearables/sync",
		Summary:       "Sync wearable data",
		Tags:          []string{"wearables"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
		Middlewares:   authed,
	}, s.syncWearable)
}

// syncWearable не дублирует показания: повтор по (источник, дата) возвращает существующую запись
func (s *Server) syncWearable(ctx context.Context, in *SyncWearableInput) (*WearableOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := userID(ctx)
	out := &WearableOutput{}
	for _, w := range s.wearables {
		if w.UserID == uid && w.Input.Source == in.Body.Source && w.Input.MeasurementDate.Equal(in.Body.MeasurementDate) {
			out.Body.ID = w.ID
			out.Body.WearableInput = w.Input
			return out, nil
		}
	}

	w := wearable{ID: s.id(), UserID: uid, Input: in.Body}
	s.wearables = append(s.wearables, w)

	out.Body.ID = w.ID
	out.Body.WearableInput = w.Input
	return out, nil
}
