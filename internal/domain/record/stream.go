package record

import (
	"fmt"
	"strings"
)

// Stream - именованный логический поток записей одного вида
type Stream string

const (
	StreamCheckIns  Stream = "checkins"
	StreamWorkouts  Stream = "workouts"
	StreamSessions  Stream = "sessions"
	StreamWearables Stream = "wearables"
)

// Streams возвращает все известные потоки в стабильном порядке
func Streams() []Stream {
	return []Stream{StreamCheckIns, StreamWorkouts, StreamSessions, StreamWearables}
}

// Validate проверяет, что поток известен
func (s Stream) Validate() error {
	switch s {
	case StreamCheckIns, StreamWorkouts, StreamSessions, StreamWearables:
		return nil
	}
	return fmt.Errorf("неизвестный поток: %s", s)
}

// String возвращает строковое представление потока.
func (s Stream) String() string {
	return string(s)
}

// DisplayName возвращает человекочитаемое название потока.
func (s Stream) DisplayName() string {
	switch s {
	case StreamCheckIns:
		return "Ежедневные отметки"
	case StreamWorkouts:
		return "Тренировки"
	case StreamSessions:
		return "Выполненные тренировки"
	case StreamWearables:
		return "Данные носимых устройств"
	default:
		return "Неизвестный поток"
	}
}

// AnonymousOwner владелец записей, созданных без входа в систему
const AnonymousOwner = "default"

const ownerPlaceholder = "{owner}"

// KeyTable сопоставляет поток с шаблоном ключа хранилища.
// Шаблон обязан содержать {owner}, чтобы данные разных пользователей не пересекались.
type KeyTable map[Stream]string

// DefaultKeyTable возвращает шаблоны ключей по умолчанию
func DefaultKeyTable() KeyTable {
	return KeyTable{
		StreamCheckIns:  "checkin_history/{owner}",
		StreamWorkouts:  "workout_history/{owner}",
		StreamSessions:  "workout_sessions/{owner}",
		StreamWearables: "wearable_samples/{owner}",
	}
}

// Validate проверяет, что для каждого потока задан шаблон с {owner}
func (t KeyTable) Validate() error {
	for _, s := range Streams() {
		tmpl, ok := t[s]
		if !ok || strings.TrimSpace(tmpl) == "" {
			return fmt.Errorf("не задан шаблон ключа для потока %s", s)
		}
		if !strings.Contains(tmpl, ownerPlaceholder) {
			return fmt.Errorf("шаблон ключа потока %s не содержит %s", s, ownerPlaceholder)
		}
	}
	return nil
}

// Key формирует ключ хранилища для пары (владелец, поток)
func (t KeyTable) Key(owner string, stream Stream) (string, error) {
	if strings.TrimSpace(owner) == "" {
		return "", fmt.Errorf("владелец записей не указан")
	}
	tmpl, ok := t[stream]
	if !ok {
		return "", fmt.Errorf("не задан шаблон ключа для потока %s", stream)
	}
	return strings.ReplaceAll(tmpl, ownerPlaceholder, owner), nil
}
