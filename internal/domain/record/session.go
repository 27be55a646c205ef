package record

import (
	"fmt"
	"strings"
)

// WorkoutSession - факт выполнения тренировки.
// WorkoutID ссылается на серверный id тренировки, если она синхронизирована, иначе на локальный.
type WorkoutSession struct {
	WorkoutID          string   `json:"workout_id"`
	DurationMinutes    int      `json:"duration_minutes"`
	ExercisesCompleted []string `json:"exercises_completed"`
	Notes              string   `json:"notes,omitempty"`
}

func (s WorkoutSession) Stream() Stream {
	return StreamSessions
}

func (s WorkoutSession) Validate() error {
	if strings.TrimSpace(s.WorkoutID) == "" {
		return fmt.Errorf("%w: не указана тренировка", ErrInvalidData)
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("%w: длительность должна быть больше нуля", ErrInvalidData)
	}
	return nil
}
