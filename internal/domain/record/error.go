package record

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidData = errors.New("invalid record data")
	ErrDuplicateID = errors.New("duplicate local id")
)

// StorageError - отказ локального хранилища. Для вызывающего фатален.
type StorageError struct {
	Op     string
	Stream Stream
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ошибка хранилища (%s, %s): %v", e.Op, e.Stream, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError сообщает, является ли ошибка отказом хранилища
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
