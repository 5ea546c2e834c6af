// Package apitest runs an in-process stand-in for the profile API so the
// client can be exercised end to end in tests. It follows the API's cookie
// contract: a JSESSIONID session cookie and a script-readable XSRF-TOKEN
// cookie that must be echoed in the X-XSRF-TOKEN header on POSTs.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/oauth2profile/internal/middleware"
	"github.com/atinyakov/oauth2profile/internal/models"
)

const (
	SessionCookie = "JSESSIONID"
	CSRFCookie    = "XSRF-TOKEN"
	CSRFHeader    = "X-XSRF-TOKEN"
)

// Request is a request recorded by the server.
type Request struct {
	Method    string
	Path      string
	CSRF      string
	RequestID string
	Body      []byte
}

type session struct {
	user  *models.User
	token string
}

// Server is the fake API.
type Server struct {
	*httptest.Server

	// DescriptorOnly makes /api/csrf answer with the descriptor but no cookie.
	DescriptorOnly bool

	mu       sync.Mutex
	sessions map[string]*session
	failures map[string]int
	requests []Request
}

// NewServer starts a fake API. It is closed with t.Cleanup by callers.
func NewServer(log *zap.Logger) *Server {
	s := &Server{
		sessions: make(map[string]*session),
		failures: make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes(log))
	return s
}

func (s *Server) routes(log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestLogging(log))
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Get("/api/csrf", s.csrf)
	r.Get("/api/me", s.me)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireCSRF(CSRFHeader, s.expectedToken))
		r.Post("/api/profile", s.updateProfile)
		r.Post("/logout", s.logout)
	})
	return r
}

// Login creates an authenticated session for u and returns its id.
func (s *Server) Login(u models.User) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Authenticated = true
	id := uuid.NewString()
	s.sessions[id] = &session{user: &u}
	return id
}

// User returns the user of session id.
func (s *Server) User(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.user == nil {
		return models.User{}, false
	}
	return *sess.user, true
}

// HasSession reports whether session id is still valid.
func (s *Server) HasSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// Fail makes every following request to path answer with status.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the requests received for method and path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) sessionFor(r *http.Request) (string, *session) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.Value, s.sessions[c.Value]
}

// expectedToken is the XSRF-TOKEN cookie echoed by the client. Without the
// cookie (DescriptorOnly) it is the token kept in the session.
func (s *Server) expectedToken(r *http.Request) string {
	if !s.DescriptorOnly {
		c, err := r.Cookie(CSRFCookie)
		if err != nil {
			return ""
		}
		return c.Value
	}

	_, sess := s.sessionFor(r)
	if sess == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sess.token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
