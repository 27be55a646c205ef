package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"equilibria/internal/domain/reconcile"
	"equilibria/internal/domain/record"
	"equilibria/internal/testsupport/fakeapi"
)

type fixture struct {
	srv    *fakeapi.Server
	client *Client
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	srv := fakeapi.New(slog.Default())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	uid := srv.SeedUser("ann@example.com", "ann", "secret1")
	return &fixture{
		srv:    srv,
		client: New(ts.URL, 5*time.Second, slog.Default()),
		token:  srv.IssueToken(uid),
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", BaseURL("localhost:8080", false))
	assert.Equal(t, "https://api.example.com", BaseURL("api.example.com/", true))
	assert.Equal(t, "http://127.0.0.1:9", BaseURL("http://127.0.0.1:9", true))
}

func TestClient_RegisterLoginMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.client.Register(ctx, RegisterRequest{Email: "bob@example.com", Username: "bob", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	_, err = f.client.Register(ctx, RegisterRequest{Email: "bob@example.com", Username: "bob2", Password: "hunter22"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "Email already registered", se.Detail)

	token, err := f.client.Login(ctx, "bob@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)

	me, err := f.client.Me(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
	assert.Equal(t, "bob", me.Username)

	_, err = f.client.Login(ctx, "bob@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.client.Logout(ctx, token.AccessToken))
	_, err = f.client.Me(ctx, token.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_LatestRecovery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// нет данных - не ошибка
	latest, err := f.client.LatestRecovery(ctx, f.token)
	require.NoError(t, err)
	assert.Nil(t, latest)

	ack, err := f.client.PushCheckIn(ctx, f.token, mustJSON(t, record.CheckIn{
		SleepHours: 7.5, SleepQuality: 8, SorenessLevel: 3, EnergyLevel: 8, RecoveryScore: 3,
	}))
	require.NoError(t, err)

	latest, err = f.client.LatestRecovery(ctx, f.token)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, ack.RemoteID, latest.ID)
	assert.Equal(t, 8.0, latest.RecoveryScore)

	// отказ сервера остаётся ошибкой
	f.srv.FailNext(1, http.StatusInternalServerError)
	_, err = f.client.LatestRecovery(ctx, f.token)
	assert.Error(t, err)
}

func TestClient_PushCheckInReturnsAuthoritativeFields(t *testing.T) {
	f := newFixture(t)

	ack, err := f.client.PushCheckIn(context.Background(), f.token, mustJSON(t, record.CheckIn{
		SleepHours: 7.5, SleepQuality: 8, SorenessLevel: 3, EnergyLevel: 8, RecoveryScore: 3,
	}))
	require.NoError(t, err)

	assert.NotEmpty(t, ack.RemoteID)
	assert.JSONEq(t, `8`, string(ack.Fields["recovery_score"]))
	assert.JSONEq(t, `"Heavy"`, string(ack.Fields["recommended_intensity"]))
}

func TestClient_PushFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := mustJSON(t, record.Workout{Name: "Push Day", Exercises: []record.Exercise{record.NewExercise("JM Press")}})

	_, err := f.client.PushWorkout(ctx, "bogus", payload)
	assert.ErrorIs(t, err, ErrUnauthorized)

	f.srv.FailNext(1, http.StatusBadGateway)
	_, err = f.client.PushWorkout(ctx, f.token, payload)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.False(t, reconcile.IsRejection(err))

	f.srv.FailNext(1, http.StatusUnprocessableEntity)
	_, err = f.client.PushWorkout(ctx, f.token, payload)
	assert.True(t, reconcile.IsRejection(err))

	_, err = f.client.PushWorkout(ctx, f.token, json.RawMessage(`{`))
	assert.Error(t, err)

	unreachable := New("http://127.0.0.1:1", time.Second, slog.Default())
	_, err = unreachable.PushWorkout(ctx, f.token, payload)
	assert.Error(t, err)
	assert.False(t, reconcile.IsRejection(err))
}

func TestStatusError_Rejected(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{code: http.StatusBadRequest, want: true},
		{code: http.StatusNotFound, want: true},
		{code: http.StatusUnprocessableEntity, want: true},
		{code: http.StatusUnauthorized},
		{code: http.StatusForbidden},
		{code: http.StatusRequestTimeout},
		{code: http.StatusTooManyRequests},
		{code: http.StatusInternalServerError},
		{code: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := error(&StatusError{Code: tt.code})
			assert.Equal(t, tt.want, reconcile.IsRejection(err))
		})
	}

	assert.ErrorIs(t, &StatusError{Code: http.StatusNotFound}, ErrNotFound)
	assert.ErrorIs(t, &StatusError{Code: http.StatusForbidden}, ErrUnauthorized)
}

func TestSessionGateway_ResolvesWorkoutReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	workoutAck, err := f.client.PushWorkout(ctx, f.token, mustJSON(t, record.Workout{
		Name: "Leg Day", Exercises: []record.Exercise{record.NewExercise("Squat Pattern")},
	}))
	require.NoError(t, err)

	refs := map[string]string{"local-workout": workoutAck.RemoteID}
	resolve := func(_ context.Context, ref string) (string, bool, error) {
		id, ok := refs[ref]
		return id, ok, nil
	}
	gws := f.client.Gateways(resolve)

	ack, err := gws[record.StreamSessions].Push(ctx, f.token, mustJSON(t, record.WorkoutSession{
		WorkoutID: "local-workout", DurationMinutes: 50, ExercisesCompleted: []string{"Squat Pattern"},
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, ack.RemoteID)

	_, err = gws[record.StreamSessions].Push(ctx, f.token, mustJSON(t, record.WorkoutSession{
		WorkoutID: "not-synced", DurationMinutes: 50,
	}))
	assert.Error(t, err)
	assert.Equal(t, 1, f.srv.Hits("/api/v1/workouts/sessions"))
}

func TestClient_PushWearableIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sample := record.WearableSample{
		Source: "apple_health", MeasurementDate: time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC),
		HRVRmssd: 55, HRVSdnn: 70, RestingHeartRate: 58, AvgHeartRate: 82,
		SleepDurationMinutes: 420, DeepSleepMinutes: 90, RemSleepMinutes: 110,
		Steps: 5400, ActiveCalories: 350,
	}

	first, err := f.client.PushWearable(ctx, f.token, mustJSON(t, sample))
	require.NoError(t, err)
	second, err := f.client.PushWearable(ctx, f.token, mustJSON(t, sample))
	require.NoError(t, err)

	assert.Equal(t, first.RemoteID, second.RemoteID)
}

func TestRemoteID(t *testing.T) {
	id, err := remoteID(json.RawMessage(`42`))
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	id, err = remoteID(json.RawMessage(`"abc"`))
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = remoteID(nil)
	assert.Error(t, err)
	_, err = remoteID(json.RawMessage(`null`))
	assert.Error(t, err)
}

func TestClient_Health(t *testing.T) {
	f := newFixture(t)

	status, err := f.client.Health(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "healthy", status)
}
