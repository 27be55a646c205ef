package workout

import (
	"fmt"
	"strconv"
	"strings"

	"equilibria/internal/domain/record"
)

// parseExercise разбирает упражнение в формате "Название[:подходыxповторы[@вес]]".
// Без схемы используются значения по умолчанию 3x10@0.
func parseExercise(raw string) (record.Exercise, error) {
	name, scheme, hasScheme := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return record.Exercise{}, fmt.Errorf("не указано название упражнения: %q", raw)
	}

	ex := record.NewExercise(name)
	if !hasScheme {
		return ex, nil
	}

	scheme = strings.ToLower(strings.TrimSpace(scheme))
	volume, weight, hasWeight := strings.Cut(scheme, "@")
	sets, reps, ok := strings.Cut(volume, "x")
	if !ok {
		return record.Exercise{}, fmt.Errorf("ожидался формат подходыxповторы: %q", raw)
	}

	var err error
	if ex.Sets, err = strconv.Atoi(strings.TrimSpace(sets)); err != nil {
		return record.Exercise{}, fmt.Errorf("некорректное число подходов в %q: %w", raw, err)
	}
	if ex.Reps, err = strconv.Atoi(strings.TrimSpace(reps)); err != nil {
		return record.Exercise{}, fmt.Errorf("некорректное число повторов в %q: %w", raw, err)
	}
	if hasWeight {
		if ex.Weight, err = strconv.ParseFloat(strings.TrimSpace(weight), 64); err != nil {
			return record.Exercise{}, fmt.Errorf("некорректный вес в %q: %w", raw, err)
		}
	}
	return ex, nil
}
