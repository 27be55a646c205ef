package record

import "context"

// Repository - локальное хранилище записей. Каждый поток адресуется парой
// (владелец, поток) и упорядочен от новых к старым.
type Repository interface {
	// Append добавляет запись в начало потока; запись долговечна после возврата
	Append(ctx context.Context, owner string, stream Stream, rec Record) error
	// ReadAll возвращает снимок потока, от новых к старым
	ReadAll(ctx context.Context, owner string, stream Stream) ([]Record, error)
	// UpdateAt находит запись по local_id и применяет к ней mutate.
	// Если записи нет, возвращается ErrNotFound.
	UpdateAt(ctx context.Context, owner string, stream Stream, localID string, mutate func(*Record) error) error
	Close() error
}
