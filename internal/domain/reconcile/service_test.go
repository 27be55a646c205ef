package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"equilibria/internal/domain/reconcile"
	"equilibria/internal/domain/record"
	"equilibria/internal/domain/recovery"
	"equilibria/internal/infrastructure/storage/memory"
)

// MockGateway is a mock implementation of the Gateway interface for testing
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Push(ctx context.Context, token string, payload json.RawMessage) (*reconcile.Ack, error) {
	args := m.Called(ctx, token, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.Ack), args.Error(1)
}

type MockCredentials struct {
	mock.Mock
}

func (m *MockCredentials) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockRepository is a mock implementation of the record.Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Append(ctx context.Context, owner string, stream record.Stream, rec record.Record) error {
	args := m.Called(ctx, owner, stream, rec)
	return args.Error(0)
}

func (m *MockRepository) ReadAll(ctx context.Context, owner string, stream record.Stream) ([]record.Record, error) {
	args := m.Called(ctx, owner, stream)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]record.Record), args.Error(1)
}

func (m *MockRepository) UpdateAt(ctx context.Context, owner string, stream record.Stream, localID string, mutate func(*record.Record) error) error {
	args := m.Called(ctx, owner, stream, localID, mutate)
	return args.Error(0)
}

func (m *MockRepository) Close() error {
	return m.Called().Error(0)
}

var testNow = time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)

func scenarioCheckIn() record.CheckIn {
	return record.CheckIn{SleepHours: 7.5, SorenessLevel: 3, EnergyLevel: 8}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return []string{"id-1", "id-2", "id-3", "id-4", "id-5"}[n-1]
	}
}

func newService(repo record.Repository, creds reconcile.CredentialSource, gw reconcile.Gateway, opts ...reconcile.Option) *reconcile.Service {
	base := []reconcile.Option{
		reconcile.WithIDGenerator(sequentialIDs()),
		reconcile.WithDeriver(record.StreamCheckIns, recovery.NewScorer(recovery.DefaultWeights()).Derive),
	}
	if gw != nil {
		base = append(base, reconcile.WithGateway(record.StreamCheckIns, gw))
	}
	return reconcile.New(repo, creds, slog.Default(), append(base, opts...)...)
}

func decodeCheckIn(t *testing.T, rec *record.Record) record.CheckIn {
	t.Helper()
	var c record.CheckIn
	require.NoError(t, json.Unmarshal(rec.Payload, &c))
	return c
}

func TestRecordAndSync_GatewayUnreachable(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := memory.NewRecordRepository(record.DefaultKeyTable())
	creds := new(MockCredentials)
	creds.On("Token", mock.Anything).Return("token", nil)
	gw := new(MockGateway)
	gw.On("Push", mock.Anything, "token", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	svc := newService(repo, creds, gw)

	// Act
	rec, err := svc.RecordAndSync(ctx, "u1", scenarioCheckIn(), testNow)

	// Assert
	require.NoError(t, err)
	assert.False(t, rec.Synced)
	assert.False(t, rec.HasRemoteID())
	assert.Equal(t, "id-1", rec.LocalID)
	assert.True(t, rec.CreatedAt.Equal(testNow))

	c := decodeCheckIn(t, rec)
	assert.Equal(t, 7.5, c.SleepHours)
	assert.Equal(t, 3, c.SorenessLevel)
	assert.Equal(t, 8, c.EnergyLevel)

	stored, err := repo.ReadAll(ctx, "u1", record.StreamCheckIns)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, *rec, stored[0])
	gw.AssertNumberOfCalls(t, "Push", 1)
}

func TestRecordAndSync_AuthoritativeFieldsWin(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := memory.NewRecordRepository(record.DefaultKeyTable())
	creds := new(MockCredentials)
	creds.On("Token", mock.Anything).Return("token", nil)

	gw := new(MockGateway)
	gw.On("Push", mock.Anything, "token", mock.MatchedBy(func(p json.RawMessage) bool {
		var doc map[string]any
		if err := json.Unmarshal(p, &doc); err != nil {
			return false
		}
		_, hasLocal := doc["local_id"]
		_, hasSynced := doc["synced"]
		return !hasLocal && !hasSynced
	})).Return(&reconcile.Ack{
		RemoteID: "42",
		Fields:   map[string]json.RawMessage{"recovery_score": json.RawMessage(`3`)},
	}, nil)

	svc := newService(repo, creds, gw)

	// Act
	rec, err := svc.RecordAndSync(ctx, "u1", scenarioCheckIn(), testNow)

	// Assert
	require.NoError(t, err)
	assert.True(t, rec.Synced)
	assert.Equal(t, "42", rec.RemoteID)
	assert.Equal(t, 3.0, decodeCheckIn(t, rec).RecoveryScore)

	stored, err := repo.ReadAll(ctx, "u1", record.StreamCheckIns)
	require.NoError(t, err)
	assert.Equal(t, *rec, stored[0])
	gw.AssertExpectations(t)
}

func TestRecordAndSync_ScenarioB(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRecordRepository(record.DefaultKeyTable())
	creds := new(MockCredentials)
	creds.On("Token", mock.Anything).Return("token", nil)
	gw := reconcile.GatewayFunc(func(ctx context.Context, token string, payload json.RawMessage) (*reconcile.Ack, error) {
		return &reconcile.Ack{RemoteID: "42", Fields: map[string]json.RawMessage{"recovery_score": json.RawMessage(`8`)}}, nil
	})

	rec, err := newService(repo, creds, gw).RecordAndSync(ctx, "u1", scenarioCheckIn(), testNow)

	require.NoError(t, err)
	assert.True(t, rec.Synced)
	assert.Equal(t, "42", rec.RemoteID)
	assert.Equal(t, 8.0, decodeCheckIn(t, rec).RecoveryScore)
}

func TestRecordAndSync_GatewayFailures(t *testing.T) {
	tests := []struct {
		name  string
		token string
		tkErr error
		ack   *reconcile.Ack
		gwErr error
	}{
		{name: "no credential", tkErr: reconcile.ErrNoCredential},
		{name: "credential store broken", tkErr: errors.New("decrypt failed")},
		{name: "server error", token: "t", gwErr: errors.New("status 500")},
		{name: "timeout", token: "t", gwErr: context.DeadlineExceeded},
		{name: "malformed ack", token: "t", ack: &reconcile.Ack{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ctx := context.Background()
			repo := memory.NewRecordRepository(record.DefaultKeyTable())
			creds := new(MockCredentials)
			creds.On("Token", mock.Anything).Return(tt.token, tt.tkErr)
			gw := new(MockGateway)
			if tt.tkErr == nil {
				if tt.ack != nil {
					gw.On("Push", mock.Anything, tt.token, mock.Anything).Return(tt.ack, nil)
				} else {
					gw.On("Push", mock.Anything, tt.token, mock.Anything).Return(nil, tt.gwErr)
				}
			}

			reg := prometheus.NewRegistry()
			metrics := reconcile.NewMetrics(reg)
			svc := newService(repo, creds, gw, reconcile.WithMetrics(metrics))

			// Act
			rec, err := svc.RecordAndSync(ctx, "u1", scenarioCheckIn(), testNow)

			// Assert
			require.NoError(t, err)
			assert.False(t, rec.Synced)
			assert.Empty(t, rec.RemoteID)
			if tt.tkErr != nil {
				gw.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
			}

			samples, err := reconcile.AttemptSamples(reg)
			require.NoError(t, err)
			require.Len(t, samples, 1)
			assert.Equal(t, "checkins", samples[0].Stream)
			assert.NotEqual(t, reconcile.OutcomeSynced, samples[0].Outcome)
		})
	}
}

func TestRecordAndSync_NoGatewayStaysLocal(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRecordRepository(record.DefaultKeyTable())
	svc := reconcile.New(repo, nil, slog.Default())

	rec, err := svc.RecordAndSync(ctx, "u1", record.Workout{Name: "Push Day", Exercises: []record.Exercise{record.NewExercise("JM Press")}}, testNow)

	require.NoError(t, err)
	assert.False(t, rec.Synced)
	assert.Equal(t, record.StreamWorkouts, rec.Stream)
}

func TestRecordAndSync_InvalidPayloadNotPersisted(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newService(repo, nil, nil)

	_, err := svc.RecordAndSync(ctx, "u1", record.CheckIn{SleepHours: -1, SorenessLevel: 3, EnergyLevel: 8}, testNow)
	assert.ErrorIs(t, err, record.ErrInvalidData)

	_, err = svc.RecordAndSync(ctx, "u1", nil, testNow)
	assert.ErrorIs(t, err, record.ErrInvalidData)

	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordAndSync_AppendFailureStopsBeforeNetwork(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("Append", mock.Anything, "u1", record.StreamCheckIns, mock.Anything).Return(errors.New("disk full"))
	creds := new(MockCredentials)
	gw := new(MockGateway)

	svc := newService(repo, creds, gw)

	// Act
	rec, err := svc.RecordAndSync(ctx, "u1", scenarioCheckIn(), testNow)

	// Assert
	assert.Nil(t, rec)
	var se *record.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "append", se.Op)
	creds.AssertNotCalled(t, "Token", mock.Anything)
	gw.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordAndSync_UpdateFailureReturnsLocalRecord(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("Append", mock.Anything, "u1", record.StreamCheckIns, mock.Anything).Return(nil)
	repo.On("UpdateAt", mock.Anything, "u1", record.StreamCheckIns, "id-1", mock.Anything).Return(errors.New("locked"))
	creds := new(MockCredentials)
	creds.On("Token", mock.Anything).Return("token", nil)
	gw := new(MockGateway)
	gw.On("Push", mock.Anything, "token", mock.Anything).Return(&reconcile.Ack{RemoteID: "42"}, nil)

	rec, err := newService(repo, creds, gw).RecordAndSync(ctx, "u1", scenarioCheckIn(), testNow)

	assert.True(t, record.IsStorageError(err))
	require.NotNil(t, rec)
	assert.False(t, rec.Synced)
	assert.Equal(t, "id-1", rec.LocalID)
}

func TestRecordAndSync_GatewayCallIsBounded(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRecordRepository(record.DefaultKeyTable())
	creds := new(MockCredentials)
	creds.On("Token", mock.Anything).Return("token", nil)
	gw := reconcile.GatewayFunc(func(ctx context.Context, token string, payload json.RawMessage) (*reconcile.Ack, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	svc := newService(repo, creds, gw, reconcile.WithTimeout(20*time.Millisecond))

	started := time.Now()
	rec, err := svc.RecordAndSync(ctx, "u1", scenarioCheckIn(), testNow)

	require.NoError(t, err)
	assert.False(t, rec.Synced)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestRecordAndSync_DerivedFields(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRecordRepository(record.DefaultKeyTable())
	svc := newService(repo, nil, nil,
		reconcile.WithDeriver(record.StreamWorkouts, func(p record.Payload) (record.Payload, error) {
			w := p.(record.Workout)
			w.TotalVolume = w.Volume()
			return w, nil
		}))

	rec, err := svc.RecordAndSync(ctx, "u1", record.Workout{Name: "Legs", Exercises: []record.Exercise{
		{Name: "Squat Pattern", Sets: 4, Reps: 5},
		record.NewExercise("Calf Raises"),
	}}, testNow)
	require.NoError(t, err)

	var w record.Workout
	require.NoError(t, json.Unmarshal(rec.Payload, &w))
	assert.Equal(t, 50, w.TotalVolume)

	checkin, err := svc.RecordAndSync(ctx, "u1", record.CheckIn{SleepHours: 8, SorenessLevel: 3, EnergyLevel: 8}, testNow)
	require.NoError(t, err)
	c := decodeCheckIn(t, checkin)
	assert.Equal(t, 8.0, c.RecoveryScore)
	assert.Equal(t, recovery.IntensityHeavy, c.RecommendedIntensity)
}

func TestMetrics_StoredCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := reconcile.NewMetrics(reg)
	repo := memory.NewRecordRepository(record.DefaultKeyTable())
	svc := newService(repo, nil, nil, reconcile.WithMetrics(metrics))

	_, err := svc.RecordAndSync(context.Background(), "u1", scenarioCheckIn(), testNow)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "equilibria_sync_records_stored_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
