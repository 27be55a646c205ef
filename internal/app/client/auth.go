package client

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"equilibria/internal/app/client/credential"
	"equilibria/internal/app/client/gateway"
	"equilibria/internal/domain/account"
)

var _ account.Validator = (*account.RegistrationValidator)(nil)

// Register регистрирует нового пользователя на сервере
func (a *App) Register(ctx context.Context, email, username, password string) (*gateway.User, error) {
	if err := a.validator.ValidateRegister(email, username, password); err != nil {
		return nil, err
	}

	user, err := a.api.Register(ctx, gateway.RegisterRequest{Email: email, Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("ошибка регистрации: %w", err)
	}

	a.log.Info("Пользователь успешно зарегистрирован", slog.String("email", email))
	return user, nil
}

// Login выполняет вход и сохраняет токен с профилем в зашифрованном виде.
// Локальные записи не удаляются: потоки разделены по владельцу.
func (a *App) Login(ctx context.Context, email, password string) (*credential.Credential, error) {
	token, err := a.api.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("ошибка входа: %w", err)
	}

	user, err := a.api.Me(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профиля: %w", err)
	}

	cred := credential.Credential{
		Token:    token.AccessToken,
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		IssuedAt: a.now(),
	}
	if err := a.creds.Save(cred); err != nil {
		return nil, fmt.Errorf("ошибка сохранения токена: %w", err)
	}

	a.log.Info("Вход выполнен успешно", slog.String("email", email), slog.String("user_id", user.ID))
	return &cred, nil
}

// Logout завершает сессию на сервере (если он доступен) и удаляет токен
func (a *App) Logout(ctx context.Context) error {
	cred, err := a.creds.Load()
	if errors.Is(err, credential.ErrNoCredential) {
		return nil
	}
	if err != nil {
		a.log.Warn("Не удалось прочитать токен, удаляем", slog.String("error", err.Error()))
		return a.creds.Clear()
	}

	if err := a.api.Logout(ctx, cred.Token); err != nil {
		a.log.Warn("Сервер не подтвердил выход", slog.String("error", err.Error()))
	}
	return a.creds.Clear()
}

// CurrentUser возвращает данные текущего пользователя
func (a *App) CurrentUser() (*credential.Credential, error) {
	return a.creds.Load()
}
