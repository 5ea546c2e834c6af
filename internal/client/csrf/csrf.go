// Package csrf stores the anti-forgery token the API expects to be echoed
// back on state-changing requests.
package csrf

import "sync"

const (
	// CookieName is the cookie the API issues the token in.
	CookieName = "XSRF-TOKEN"
	// HeaderName is the request header the token is echoed in.
	HeaderName = "X-XSRF-TOKEN"
)

// Store gives access to the current token. Token returns "" when no token
// is available.
type Store interface {
	Token() string
	SetToken(token string)
}

// CookieJar is the subset of the client's cookie jar used by CookieStore.
type CookieJar interface {
	Cookie(name string) string
	SetCookie(name, value string)
}

// CookieStore keeps the token in the XSRF-TOKEN cookie of the API origin,
// the same cookie the server issues.
type CookieStore struct {
	jar CookieJar
}

// NewCookieStore returns a Store backed by jar.
func NewCookieStore(jar CookieJar) *CookieStore {
	return &CookieStore{jar: jar}
}

func (s *CookieStore) Token() string {
	return s.jar.Cookie(CookieName)
}

func (s *CookieStore) SetToken(token string) {
	s.jar.SetCookie(CookieName, token)
}

// MemoryStore keeps the token in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemoryStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}
