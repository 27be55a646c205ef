// Package credential хранит токен доступа и профиль пользователя на диске
// в зашифрованном виде. Ключ выводится из случайного секрета устройства.
package credential

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"equilibria/internal/domain/reconcile"
	"equilibria/internal/domain/record"
)

const filePermissions = 0600

// ErrNoCredential - пользователь не вошёл. Совместима с reconcile.ErrNoCredential.
var ErrNoCredential = fmt.Errorf("credential: %w", reconcile.ErrNoCredential)

// Credential - данные входа
type Credential struct {
	Token    string    `json:"token"`
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
}

type sealed struct {
	Salt string `json:"salt"`
	Data string `json:"data"`
}

type Store struct {
	mu            sync.Mutex
	tokenPath     string
	deviceKeyPath string
	cached        *Credential
}

func NewStore(tokenPath, deviceKeyPath string) *Store {
	return &Store{tokenPath: tokenPath, deviceKeyPath: deviceKeyPath}
}

// Save шифрует и сохраняет данные входа
func (s *Store) Save(cred Credential) error {
	if cred.Token == "" {
		return errors.New("пустой токен")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	secret, err := s.deviceSecret(true)
	if err != nil {
		return err
	}
	defer clearMemory(secret)

	salt, err := randomBytes(saltSize)
	if err != nil {
		return err
	}
	key := deriveKey(secret, salt)
	defer clearMemory(key)

	plain, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("ошибка сериализации данных входа: %w", err)
	}
	defer clearMemory(plain)

	data, err := encryptWithKey(key, plain)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(sealed{Salt: hex.EncodeToString(salt), Data: hex.EncodeToString(data)}, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.tokenPath), 0700); err != nil {
		return fmt.Errorf("ошибка создания каталога: %w", err)
	}
	if err := os.WriteFile(s.tokenPath, out, filePermissions); err != nil {
		return fmt.Errorf("ошибка сохранения данных входа: %w", err)
	}

	c := cred
	s.cached = &c
	return nil
}

// Load читает и расшифровывает данные входа. Если файла нет, возвращает ErrNoCredential.
func (s *Store) Load() (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		c := *s.cached
		return &c, nil
	}

	raw, err := os.ReadFile(s.tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных входа: %w", err)
	}

	var sf sealed
	if err := json.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("ошибка декодирования данных входа: %w", err)
	}
	salt, err := hex.DecodeString(sf.Salt)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования соли: %w", err)
	}
	data, err := hex.DecodeString(sf.Data)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования данных: %w", err)
	}

	secret, err := s.deviceSecret(false)
	if err != nil {
		return nil, err
	}
	defer clearMemory(secret)
	key := deriveKey(secret, salt)
	defer clearMemory(key)

	plain, err := decryptWithKey(key, data)
	if err != nil {
		return nil, err
	}
	defer clearMemory(plain)

	var cred Credential
	if err := json.Unmarshal(plain, &cred); err != nil {
		return nil, fmt.Errorf("ошибка декодирования данных входа: %w", err)
	}

	s.cached = &cred
	c := cred
	return &c, nil
}

// Token возвращает токен текущего пользователя
func (s *Store) Token(_ context.Context) (string, error) {
	cred, err := s.Load()
	if err != nil {
		return "", err
	}
	return cred.Token, nil
}

// Owner возвращает владельца локальных записей: id пользователя или "default"
func (s *Store) Owner() string {
	cred, err := s.Load()
	if err != nil || cred.UserID == "" {
		return record.AnonymousOwner
	}
	return cred.UserID
}

// Clear удаляет сохранённые данные входа
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	if err := os.Remove(s.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления данных входа: %w", err)
	}
	return nil
}

// deviceSecret читает секрет устройства, при create создавая его при отсутствии
func (s *Store) deviceSecret(create bool) ([]byte, error) {
	secret, err := os.ReadFile(s.deviceKeyPath)
	if err == nil {
		if len(secret) != secretSize {
			return nil, fmt.Errorf("повреждён секрет устройства: %s", s.deviceKeyPath)
		}
		return secret, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения секрета устройства: %w", err)
	}
	if !create {
		return nil, ErrNoCredential
	}

	secret, err = randomBytes(secretSize)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.deviceKeyPath), 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога: %w", err)
	}
	if err := os.WriteFile(s.deviceKeyPath, secret, filePermissions); err != nil {
		return nil, fmt.Errorf("ошибка сохранения секрета устройства: %w", err)
	}
	return secret, nil
}
