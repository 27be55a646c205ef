package record

import (
	"encoding/json"
	"fmt"
)

// NewPayload создаёт пустые данные для указанного потока
func NewPayload(stream Stream) (Payload, error) {
	switch stream {
	case StreamCheckIns:
		return &CheckIn{}, nil
	case StreamWorkouts:
		return &Workout{}, nil
	case StreamSessions:
		return &WorkoutSession{}, nil
	case StreamWearables:
		return &WearableSample{}, nil
	default:
		return nil, fmt.Errorf("unsupported stream: %s", stream)
	}
}

// ParsePayload разбирает и валидирует данные записи потока
func ParsePayload(stream Stream, data []byte) (Payload, error) {
	p, err := NewPayload(stream)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse payload for stream %s: %w", stream, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// EncodePayload валидирует данные и сериализует их в JSON
func EncodePayload(p Payload) (json.RawMessage, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: пустые данные", ErrInvalidData)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}
