package record

import (
	"fmt"
	"strings"
)

const (
	DefaultSets   = 3
	DefaultReps   = 10
	DefaultWeight = 0
)

// Exercise - упражнение в составе тренировки
type Exercise struct {
	Name   string  `json:"name"`
	Sets   int     `json:"sets"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// NewExercise создаёт упражнение с подходами по умолчанию (3×10, без веса)
func NewExercise(name string) Exercise {
	return Exercise{Name: name, Sets: DefaultSets, Reps: DefaultReps, Weight: DefaultWeight}
}

// Workout - сохранённая тренировка
type Workout struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	WorkoutType string     `json:"workout_type,omitempty"`
	IsTemplate  bool       `json:"is_template"`
	Exercises   []Exercise `json:"exercises"`
	TotalVolume int        `json:"total_volume"`
}

func (w Workout) Stream() Stream {
	return StreamWorkouts
}

// Validate проверяет тренировку. Пустая тренировка не сохраняется.
func (w Workout) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: у тренировки нет названия", ErrInvalidData)
	}
	if len(w.Exercises) == 0 {
		return fmt.Errorf("%w: тренировка без упражнений", ErrInvalidData)
	}
	for i, e := range w.Exercises {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: упражнение %d без названия", ErrInvalidData, i+1)
		}
		if e.Sets <= 0 || e.Reps <= 0 {
			return fmt.Errorf("%w: у упражнения %q подходы и повторения должны быть больше нуля", ErrInvalidData, e.Name)
		}
		if e.Weight < 0 {
			return fmt.Errorf("%w: у упражнения %q отрицательный вес", ErrInvalidData, e.Name)
		}
	}
	return nil
}

// Volume считает объём тренировки как сумму подходов на повторения.
// Вес в объём не входит.
func (w Workout) Volume() int {
	total := 0
	for _, e := range w.Exercises {
		total += e.Sets * e.Reps
	}
	return total
}

// ExerciseNames возвращает названия упражнений в порядке тренировки
func (w Workout) ExerciseNames() []string {
	names := make([]string, 0, len(w.Exercises))
	for _, e := range w.Exercises {
		names = append(names, e.Name)
	}
	return names
}

// Template - встроенный шаблон тренировки
type Template struct {
	Name      string
	Exercises []string
}

var templates = []Template{
	{Name: "Push Day", Exercises: []string{
		"Incline Press", "Shoulder Press", "JM Press", "Chest Flies", "Lateral Raises", "Tricep Extensions",
	}},
	{Name: "Pull Day", Exercises: []string{
		"T-Bar Row", "Lat Pulldown", "Sagittal Row", "Reverse Cable Curl", "Preacher Curl",
	}},
	{Name: "Leg Day", Exercises: []string{
		"Leg Extensions", "Lying Hamstring Curl", "Squat Pattern", "SLDLs", "Adductors", "Abductors", "Calf Raises",
	}},
	{Name: "Upper Body", Exercises: []string{
		"Chest Press", "Shoulder Press", "Tricep Extension", "Upper Back Row", "Lat Row", "Bicep Curl",
	}},
	{Name: "Lower Body", Exercises: []string{
		"Hamstring Curl", "Squat Pattern", "Leg Extensions", "Adductors", "Calves", "Abs",
	}},
	{Name: "Full Body", Exercises: []string{
		"Upper Back Row", "Lat Pulldown", "Sagittal Row", "Bicep Curl", "Shoulder Press", "Lateral Raise",
		"Hyperextension", "Low to High Fly", "Pec Flies", "JM Press", "Tricep Extensions", "Leg Extension",
		"Hamstring Curl", "Squat Pattern", "Adductors", "Abductors", "Calf Raises",
	}},
}

// Templates возвращает копию списка встроенных шаблонов
func Templates() []Template {
	out := make([]Template, len(templates))
	for i, t := range templates {
		out[i] = Template{Name: t.Name, Exercises: append([]string(nil), t.Exercises...)}
	}
	return out
}

// FindTemplate ищет шаблон по имени без учёта регистра
func FindTemplate(name string) (Template, bool) {
	for _, t := range Templates() {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			return t, true
		}
	}
	return Template{}, false
}

// Workout собирает тренировку из шаблона с подходами по умолчанию
func (t Template) Workout() Workout {
	w := Workout{Name: t.Name, WorkoutType: "strength", Exercises: make([]Exercise, 0, len(t.Exercises))}
	for _, name := range t.Exercises {
		w.Exercises = append(w.Exercises, NewExercise(name))
	}
	return w
}

// ExerciseLibrary возвращает объединение упражнений всех шаблонов без повторов
func ExerciseLibrary() []string {
	seen := make(map[string]struct{})
	var lib []string
	for _, t := range templates {
		for _, e := range t.Exercises {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			lib = append(lib, e)
		}
	}
	return lib
}
