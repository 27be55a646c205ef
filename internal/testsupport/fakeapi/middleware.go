package fakeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type contextKey string

const userIDKey contextKey = "userID"

// auth проверяет Bearer-токен и кладёт id пользователя в контекст
func (s *Server) auth(ctx huma.Context, next func(huma.Context)) {
	header := ctx.Header("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		s.unauthorized(ctx)
		return
	}

	s.mu.Lock()
	userID, ok := s.tokens[token]
	s.mu.Unlock()
	if !ok {
		s.unauthorized(ctx)
		return
	}

	newCtx := context.WithValue(ctx.Context(), userIDKey, userID)
	next(huma.WithContext(ctx, newCtx))
}

func (s *Server) unauthorized(ctx huma.Context) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetHeader("WWW-Authenticate", "Bearer")
	if err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"detail": "Not authenticated",
	}); err != nil {
		s.log.Error("json encode", slog.String("error", err.Error()))
	}
}

func userID(ctx context.Context) int {
	id, _ := ctx.Value(userIDKey).(int)
	return id
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// requestLogger логирует входящие запросы
type requestLogger struct {
	log *slog.Logger
}

func newRequestLogger(log *slog.Logger) *requestLogger {
	return &requestLogger{log: log.With(slog.String("component", "http_logger"))}
}

func (l *requestLogger) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		method := ctx.Method()
		path := ctx.URL().Path

		next(ctx)

		l.log.Debug("HTTP request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", ctx.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
