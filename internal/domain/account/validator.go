// Package account проверяет регистрационные данные до обращения к серверу.
package account

import (
	"errors"
	"fmt"
	"net/mail"
	"unicode"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 32
	MinPasswordLen = 8
)

var ErrInvalidRegistration = errors.New("invalid registration data")

// Validator - интерфейс для валидации регистрационных данных
type Validator interface {
	ValidateRegister(email, username, password string) error
	ValidateEmail(email string) error
	ValidateUsername(username string) error
	ValidatePassword(password string) error
}

type RegistrationValidator struct {
	requireDigit  bool
	requireLetter bool
	requireUpper  bool
}

type Option func(*RegistrationValidator)

// WithUpperCase дополнительно требует заглавную букву в пароле
func WithUpperCase() Option {
	return func(v *RegistrationValidator) { v.requireUpper = true }
}

// NewRegistrationValidator создает валидатор: пароль не короче 8 символов с буквой и цифрой
func NewRegistrationValidator(opts ...Option) *RegistrationValidator {
	v := &RegistrationValidator{
		requireDigit:  true,
		requireLetter: true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateRegister валидирует данные для регистрации
func (v *RegistrationValidator) ValidateRegister(email, username, password string) error {
	if err := v.ValidateEmail(email); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRegistration, err)
	}
	if err := v.ValidateUsername(username); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRegistration, err)
	}
	if err := v.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRegistration, err)
	}
	return nil
}

func (v *RegistrationValidator) ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("некорректный email: %q", email)
	}
	return nil
}

// ValidateUsername валидирует имя пользователя
func (v *RegistrationValidator) ValidateUsername(username string) error {
	n := len([]rune(username))
	if n < MinUsernameLen {
		return fmt.Errorf("имя пользователя должно быть не короче %d символов", MinUsernameLen)
	}
	if n > MaxUsernameLen {
		return fmt.Errorf("имя пользователя должно быть не длиннее %d символов", MaxUsernameLen)
	}

	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return fmt.Errorf("имя пользователя может содержать только буквы, цифры, '_', '-', '.'")
		}
	}
	return nil
}

// ValidatePassword валидирует пароль
func (v *RegistrationValidator) ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLen {
		return fmt.Errorf("пароль должен содержать минимум %d символов", MinPasswordLen)
	}

	var hasLetter, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
			hasLetter = true
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if v.requireLetter && !hasLetter {
		return fmt.Errorf("пароль должен содержать хотя бы одну букву")
	}
	if v.requireUpper && !hasUpper {
		return fmt.Errorf("пароль должен содержать хотя бы одну заглавную букву")
	}
	if v.requireDigit && !hasDigit {
		return fmt.Errorf("пароль должен содержать хотя бы одну цифру")
	}
	return nil
}
