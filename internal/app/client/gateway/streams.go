package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"equilibria/internal/domain/reconcile"
	"equilibria/internal/domain/record"
)

// Recovery - запись восстановления на сервере
type Recovery struct {
	ID                   string    `json:"id"`
	RecoveryScore        float64   `json:"recovery_score"`
	RecommendedIntensity string    `json:"recommended_intensity"`
	Date                 time.Time `json:"date"`
}

type recoveryRequest struct {
	SleepHours    float64  `json:"sleep_hours"`
	SleepQuality  int      `json:"sleep_quality"`
	SorenessLevel int      `json:"soreness_level"`
	EnergyLevel   int      `json:"energy_level"`
	StressLevel   int      `json:"stress_level"`
	HRVRmssd      *float64 `json:"hrv_rmssd,omitempty"`
}

type recoveryResponse struct {
	ID                   json.RawMessage `json:"id"`
	RecoveryScore        *float64        `json:"recovery_score"`
	RecommendedIntensity string          `json:"recommended_intensity"`
	Date                 time.Time       `json:"date"`
}

type workoutRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	WorkoutType string   `json:"workout_type"`
	IsTemplate  bool     `json:"is_template"`
	Exercises   []string `json:"exercises"`
}

type sessionRequest struct {
	WorkoutID          int64    `json:"workout_id"`
	DurationMinutes    int      `json:"duration_minutes"`
	ExercisesCompleted []string `json:"exercises_completed"`
	Notes              string   `json:"notes"`
}

type createdResponse struct {
	ID json.RawMessage `json:"id"`
}

// LatestRecovery возвращает последнюю серверную оценку.
// Отсутствие данных (404) - не ошибка: возвращается nil.
func (c *Client) LatestRecovery(ctx context.Context, token string) (*Recovery, error) {
	var resp recoveryResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/recovery/latest", token, nil, &resp)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	id, err := remoteID(resp.ID)
	if err != nil {
		return nil, err
	}
	out := &Recovery{ID: id, RecommendedIntensity: resp.RecommendedIntensity, Date: resp.Date}
	if resp.RecoveryScore != nil {
		out.RecoveryScore = *resp.RecoveryScore
	}
	return out, nil
}

// PushCheckIn отправляет отметку. Оценка и рекомендация сервера считаются авторитетными.
func (c *Client) PushCheckIn(ctx context.Context, token string, payload json.RawMessage) (*reconcile.Ack, error) {
	var in record.CheckIn
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("ошибка разбора отметки: %w", err)
	}

	req := recoveryRequest{
		SleepHours:    in.SleepHours,
		SleepQuality:  in.SleepQuality,
		SorenessLevel: in.SorenessLevel,
		EnergyLevel:   in.EnergyLevel,
		StressLevel:   in.StressLevel,
		HRVRmssd:      in.HRVRmssd,
	}

	var resp recoveryResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/recovery/log", token, req, &resp); err != nil {
		return nil, err
	}

	id, err := remoteID(resp.ID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage, 2)
	if resp.RecoveryScore != nil {
		fields["recovery_score"], _ = json.Marshal(*resp.RecoveryScore)
	}
	if resp.RecommendedIntensity != "" {
		fields["recommended_intensity"], _ = json.Marshal(resp.RecommendedIntensity)
	}
	return &reconcile.Ack{RemoteID: id, Fields: fields}, nil
}

// PushWorkout отправляет тренировку. Сервер хранит только названия упражнений.
func (c *Client) PushWorkout(ctx context.Context, token string, payload json.RawMessage) (*reconcile.Ack, error) {
	var in record.Workout
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("ошибка разбора тренировки: %w", err)
	}

	req := workoutRequest{
		Name:        in.Name,
		Description: in.Description,
		WorkoutType: in.WorkoutType,
		IsTemplate:  in.IsTemplate,
		Exercises:   in.ExerciseNames(),
	}
	return c.create(ctx, token, "/api/v1/workouts/", req)
}

// PushWearable отправляет показания носимого устройства как есть
func (c *Client) PushWearable(ctx context.Context, token string, payload json.RawMessage) (*reconcile.Ack, error) {
	var in record.WearableSample
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("ошибка разбора показаний: %w", err)
	}
	if in.RawData == nil {
		in.RawData = map[string]any{}
	}
	return c.create(ctx, token, "/api/v1/wearables/sync", in)
}

func (c *Client) create(ctx context.Context, token, path string, req any) (*reconcile.Ack, error) {
	var resp createdResponse
	if err := c.doJSON(ctx, http.MethodPost, path, token, req, &resp); err != nil {
		return nil, err
	}
	id, err := remoteID(resp.ID)
	if err != nil {
		return nil, err
	}
	return &reconcile.Ack{RemoteID: id}, nil
}

// WorkoutResolver переводит ссылку на тренировку (локальный или серверный id) в серверный id.
// ok == false, если тренировка ещё не синхронизирована.
type WorkoutResolver func(ctx context.Context, ref string) (remoteID string, ok bool, err error)

// SessionGateway отправляет выполненные тренировки, подставляя серверный id тренировки
type SessionGateway struct {
	client  *Client
	resolve WorkoutResolver
}

func NewSessionGateway(c *Client, resolve WorkoutResolver) *SessionGateway {
	return &SessionGateway{client: c, resolve: resolve}
}

func (g *SessionGateway) Push(ctx context.Context, token string, payload json.RawMessage) (*reconcile.Ack, error) {
	var in record.WorkoutSession
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("ошибка разбора тренировки: %w", err)
	}

	ref := in.WorkoutID
	if g.resolve != nil {
		resolved, ok, err := g.resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("тренировка %s ещё не синхронизирована", ref)
		}
		ref = resolved
	}

	workoutID, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("некорректный серверный id тренировки %q: %w", ref, err)
	}

	exercises := in.ExercisesCompleted
	if exercises == nil {
		exercises = []string{}
	}
	req := sessionRequest{
		WorkoutID:          workoutID,
		DurationMinutes:    in.DurationMinutes,
		ExercisesCompleted: exercises,
		Notes:              in.Notes,
	}
	return g.client.create(ctx, token, "/api/v1/workouts/sessions", req)
}

// Gateways возвращает шлюзы всех потоков для регистрации в реконсиляторе
func (c *Client) Gateways(resolve WorkoutResolver) map[record.Stream]reconcile.Gateway {
	return map[record.Stream]reconcile.Gateway{
		record.StreamCheckIns:  reconcile.GatewayFunc(c.PushCheckIn),
		record.StreamWorkouts:  reconcile.GatewayFunc(c.PushWorkout),
		record.StreamSessions:  NewSessionGateway(c, resolve),
		record.StreamWearables: reconcile.GatewayFunc(c.PushWearable),
	}
}
