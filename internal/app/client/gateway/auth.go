package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// User - профиль пользователя на сервере
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type userResponse struct {
	ID       json.RawMessage `json:"id"`
	Email    string          `json:"email"`
	Username string          `json:"username"`
}

func (u userResponse) user() (*User, error) {
	id, err := remoteID(u.ID)
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Email: u.Email, Username: u.Username}, nil
}

// Token - выданный сервером токен доступа
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var resp userResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, err
	}
	return resp.user()
}

// Login получает токен. Сервер ожидает email в поле username формы.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var token Token
	if err := c.doForm(ctx, "/api/v1/auth/login", form, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("сервер не вернул токен")
	}
	return &token, nil
}

func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var resp userResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/me", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.user()
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/auth/logout", token, nil, nil)
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/health", "", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
