package apitest

import (
	"bytes"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/atinyakov/oauth2profile/internal/models"
)

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			CSRF:      r.Header.Get(CSRFHeader),
			RequestID: r.Header.Get("X-Request-ID"),
			Body:      body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, ok := s.failures[r.URL.Path]
		s.mu.Unlock()
		if ok {
			writeJSON(w, status, map[string]any{"success": false, "error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrf issues the token, creating an anonymous session when needed.
func (s *Server) csrf(w http.ResponseWriter, r *http.Request) {
	id, sess := s.sessionFor(r)

	s.mu.Lock()
	if sess == nil {
		id = uuid.NewString()
		sess = &session{}
		s.sessions[id] = sess
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true})
	}
	if sess.token == "" {
		sess.token = uuid.NewString()
	}
	token := sess.token
	s.mu.Unlock()

	if !s.DescriptorOnly {
		http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: token, Path: "/"})
	}
	writeJSON(w, http.StatusOK, models.CSRFDescriptor{
		HeaderName:    CSRFHeader,
		ParameterName: "_csrf",
		Token:         token,
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	_, sess := s.sessionFor(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil || sess.user == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, sess.user)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	_, sess := s.sessionFor(r)
	if sess == nil || sess.user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Not authenticated"})
		return
	}

	var req models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request"})
		return
	}

	s.mu.Lock()
	sess.user.DisplayName = req.DisplayName
	sess.user.Bio = req.Bio
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Profile updated successfully"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	id, _ := s.sessionFor(r)

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusOK)
}
