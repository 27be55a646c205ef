// Package fakeapi - встраиваемый REST-сервер equilibria для тестов клиента.
// Повторяет маршруты, форматы и коды ответов настоящего сервера.
package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

type user struct {
	ID       int
	Email    string
	Username string
	Password string
}

type recoveryLog struct {
	ID     int
	UserID int
	Date   time.Time
	Input  RecoveryInput
	Score  float64
	Advice string
}

type workout struct {
	ID     int
	UserID int
	Input  WorkoutInput
}

type wearable struct {
	ID     int
	UserID int
	Input  WearableInput
}

type session struct {
	ID     int
	UserID int
	Input  SessionInput
}

// Server - состояние фейкового сервера в памяти
type Server struct {
	mu  sync.Mutex
	log *slog.Logger
	mux *chi.Mux
	now func() time.Time

	nextID     int
	users      map[int]*user
	tokens     map[string]int
	recoveries []recoveryLog
	workouts   map[int]workout
	sessions   []session
	wearables  []wearable

	hits      map[string]int
	failCode  int
	failCount int
}

// New создаёт сервер со всеми маршрутами
func New(log *slog.Logger) *Server {
	s := &Server{
		log:      log.With(slog.String("component", "fakeapi")),
		mux:      chi.NewMux(),
		now:      time.Now,
		users:    make(map[int]*user),
		tokens:   make(map[string]int),
		workouts: make(map[int]workout),
		hits:     make(map[string]int),
	}

	// middleware chi должны быть подключены до регистрации маршрутов
	s.mux.Use(s.faults)

	config := huma.DefaultConfig("Equilibria API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}
	api := humachi.New(s.mux, config)

	logged := huma.Middlewares{newRequestLogger(s.log).Middleware()}
	authed := huma.Middlewares{newRequestLogger(s.log).Middleware(), s.auth}

	s.mux.Post("/api/v1/auth/login", s.login)
	s.setupHealthRoutes(api, logged)
	s.setupAuthRoutes(api, logged, authed)
	s.setupRecoveryRoutes(api, authed)
	s.setupWorkoutRoutes(api, authed)
	s.setupWearableRoutes(api, authed)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// FailNext заставляет следующие n запросов вернуть статус code
func (s *Server) FailNext(n, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCount = n
	s.failCode = code
}

// Hits возвращает число запросов к пути, включая отклонённые
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// SetClock подменяет часы сервера
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SeedUser регистрирует пользователя и возвращает его id
func (s *Server) SeedUser(email, username, password string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(email, username, password).ID
}

// IssueToken выдаёт токен пользователю
func (s *Server) IssueToken(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueToken(userID)
}

// RecoveryCount возвращает число сохранённых отметок пользователя
func (s *Server) RecoveryCount(userID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.recoveries {
		if r.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Server) faults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		fail := 0
		if s.failCount > 0 {
			s.failCount--
			fail = s.failCode
		}
		s.mu.Unlock()

		if fail != 0 {
			writeDetail(w, fail, http.StatusText(fail))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) id() int {
	s.nextID++
	return s.nextID
}

func (s *Server) addUser(email, username, password string) *user {
	u := &user{ID: s.id(), Email: email, Username: username, Password: password}
	s.users[u.ID] = u
	return u
}

func (s *Server) issueToken(userID int) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)
	s.tokens[token] = userID
	return token
}
