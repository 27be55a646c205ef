package fakeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

type RegisterInput struct {
	Body struct {
		Email    string `json:"email" format:"email"`
		Username string `json:"username" minLength:"3"`
		Password string `json:"password" minLength:"6"`
	}
}

type UserBody struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type UserOutput struct {
	Body UserBody
}

type MeInput struct{}

type MessageOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (s *Server) setupAuthRoutes(api huma.API, public, authed huma.Middlewares) {
	huma.Register(api, huma.Operation{
		OperationID:   "auth-register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register user",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   public,
	}, s.register)

	huma.Register(api, huma.Operation{
		OperationID: "auth-me",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Tags:        []string{"auth"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: authed,
	}, s.me)

	huma.Register(api, huma.Operation{
		OperationID: "auth-logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Tags:        []string{"auth"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: authed,
	}, s.logout)
}

func (s *Server) register(_ context.Context, in *RegisterInput) (*UserOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, in.Body.Email) {
			return nil, huma.Error400BadRequest("Email already registered")
		}
		if u.Username == in.Body.Username {
			return nil, huma.Error400BadRequest("Username already taken")
		}
	}

	u := s.addUser(in.Body.Email, in.Body.Username, in.Body.Password)
	return &UserOutput{Body: UserBody{ID: u.ID, Email: u.Email, Username: u.Username}}, nil
}

func (s *Server) me(ctx context.Context, _ *MeInput) (*UserOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID(ctx)]
	if !ok {
		return nil, huma.Error401Unauthorized("Not authenticated")
	}
	return &UserOutput{Body: UserBody{ID: u.ID, Email: u.Email, Username: u.Username}}, nil
}

func (s *Server) logout(ctx context.Context, _ *MeInput) (*MessageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := userID(ctx)
	for token, owner := range s.tokens {
		if owner == id {
			delete(s.tokens, token)
		}
	}

	out := &MessageOutput{}
	out.Body.Message = "Successfully logged out"
	return out, nil
}

// login принимает форму OAuth2 password flow, поэтому обслуживается chi напрямую
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	s.mu.Lock()
	var found *user
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) && u.Password == password {
			found = u
			break
		}
	}
	var token string
	if found != nil {
		token = s.issueToken(found.ID)
	}
	s.mu.Unlock()

	if found == nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}
