package fakeapi

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

type WorkoutInput struct {
	Name        string   `json:"name" minLength:"1"`
	Description string   `json:"description"`
	WorkoutType string   `json:"workout_type"`
	IsTemplate  bool     `json:"is_template"`
	Exercises   []string `json:"exercises"`
}

type CreateWorkoutInput struct {
	Body WorkoutInput
}

type WorkoutOutput struct {
	Body struct {
		ID int `json:"id"`
		WorkoutInput
		CreatedAt time.Time `json:"created_at"`
	}
}

type SessionInput struct {
	WorkoutID          int      `json:"workout_id"`
	DurationMinutes    int      `json:"duration_minutes" minimum:"1"`
	ExercisesCompleted []string `json:"exercises_completed"`
	Notes              string   `json:"notes"`
}

type LogSessionInput struct {
	Body SessionInput
}

type SessionOutput struct {
	Body struct {
		ID int `json:"id"`
		SessionInput
		CompletedAt time.Time `json:"completed_at"`
	}
}

func (s *Server) setupWorkoutRoutes(api huma.API, authed huma.Middlewares) {
	huma.Register(api, huma.Operation{
		OperationID:   "workouts-create",
		Method:        http.MethodPost,
		Path:          "/api/v1/workouts/",
		Summary:       "Create a workout plan or template",
		Tags:          []string{"workouts"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
		Middlewares:   authed,
	}, s.createWorkout)

	huma.Register(api, huma.Operation{
		OperationID:   "workouts-log-session",
		Method:        http.MethodPost,
		Path:          "/api/v1/workouts/sessions",
		Summary:       "Log a completed workout session",
		Tags:          []string{"workouts"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
		Middlewares:   authed,
	}, s.logSession)
}

func (s *Server) createWorkout(ctx context.Context, in *CreateWorkoutInput) (*WorkoutOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := workout{ID: s.id(), UserID: userID(ctx), Input: in.Body}
	s.workouts[w.ID] = w

	out := &WorkoutOutput{}
	out.Body.ID = w.ID
	out.Body.WorkoutInput = w.Input
	out.Body.CreatedAt = s.now()
	return out, nil
}

func (s *Server) logSession(ctx context.Context, in *LogSessionInput) (*SessionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := userID(ctx)
	if w, ok := s.workouts[in.Body.WorkoutID]; !ok || w.UserID != uid {
		return nil, huma.Error404NotFound("Workout not found")
	}

	sess := session{ID: s.id(), UserID: uid, Input: in.Body}
	s.sessions = append(s.sessions, sess)

	out := &SessionOutput{}
	out.Body.ID = sess.ID
	out.Body.SessionInput = sess.Input
	out.Body.CompletedAt = s.now()
	return out, nil
}
