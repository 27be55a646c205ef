// Package gateway - REST-клиент сервера equilibria и шлюзы потоков для реконсилятора.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"equilibria/internal/domain/reconcile"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError - ответ сервера с неуспешным статусом
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ошибка сервера: статус %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("ошибка сервера: статус %d", e.Code)
}

func (e *StatusError) Unwrap() []error {
	var errs []error
	switch e.Code {
	case http.StatusNotFound:
		errs = append(errs, ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, ErrUnauthorized)
	}
	if e.Rejected() {
		errs = append(errs, reconcile.ErrRejected)
	}
	return errs
}

// Rejected сообщает, что сервер отверг сами данные: повтор того же запроса
// не поможет. 5xx, 408, 429 и ошибки авторизации считаются временными.
func (e *StatusError) Rejected() bool {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return e.Code >= 400 && e.Code < 500
}

const DefaultUserAgent = "Equilibria-Client/1.0"

type Client struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	userAgent string
}

// BaseURL собирает адрес сервера из хоста и признака TLS
func BaseURL(address string, enableTLS bool) string {
	if strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		return strings.TrimRight(address, "/")
	}
	scheme := "http://"
	if enableTLS {
		scheme = "https://"
	}
	return scheme + strings.TrimRight(address, "/")
}

// New создаёт клиент. timeout ограничивает любой запрос целиком.
func New(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &Client{
		client:    client,
		log:       log.With(slog.String("component", "gateway")),
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
	}
}

// NewWithHTTPClient создаёт клиент поверх готового http.Client (например, из httptest)
func NewWithHTTPClient(baseURL string, hc *http.Client, log *slog.Logger) *Client {
	return &Client{
		client:    hc,
		log:       log.With(slog.String("component", "gateway")),
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
	}
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, token, result)
}

func (c *Client) doForm(ctx context.Context, path string, form url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, "", result)
}

func (c *Client) do(req *http.Request, token string, result any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug("Отправка запроса",
		"method", req.Method,
		"url", req.URL.String(),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	return c.parseResponse(resp, result)
}

func (c *Client) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	c.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Detail: errorDetail(body)}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}
	return nil
}

// errorDetail достаёт текст ошибки из тела ответа: {"detail": "..."} или {"error": "..."}
func errorDetail(body []byte) string {
	var errResp struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	var detail string
	if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
		return detail
	}
	return string(errResp.Detail)
}

// remoteID приводит серверный id (число или строка) к строке
func remoteID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("в ответе нет id")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("в ответе пустой id")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("некорректный id в ответе: %s", raw)
	}
	return n.String(), nil
}
