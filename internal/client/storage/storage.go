// Package storage keeps the client's cookies: an http.CookieJar scoped to
// the API origin that can be saved to and restored from a file.
package storage

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/net/publicsuffix"
)

// SessionCookieName is the server's session cookie.
const SessionCookieName = "JSESSIONID"

// Jar is a cookie jar for a single API origin.
type Jar struct {
	base *url.URL
	path string

	mu  sync.Mutex
	jar *cookiejar.Jar
}

// NewJar creates an empty jar for baseURL. path is the session file used by
// Load and Save; empty disables persistence.
func NewJar(baseURL, path string) (*Jar, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	root := *u
	root.Path = "/"
	root.RawQuery = ""

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Jar{base: &root, path: path, jar: jar}, nil
}

// BaseURL returns the origin the jar is scoped to.
func (j *Jar) BaseURL() *url.URL {
	u := *j.base
	return &u
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Cookie returns the value of the named cookie for the API origin, or "".
func (j *Jar) Cookie(name string) string {
	for _, c := range j.Cookies(j.base) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// SetCookie stores a cookie for the API origin with path "/".
func (j *Jar) SetCookie(name, value string) {
	j.SetCookies(j.base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

// Clear expires every cookie of the API origin.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	current := j.jar.Cookies(j.base)
	expired := make([]*http.Cookie, 0, len(current))
	for _, c := range current {
		expired = append(expired, &http.Cookie{Name: c.Name, Path: "/", MaxAge: -1})
	}
	j.jar.SetCookies(j.base, expired)
}

// Load restores cookies from the session file. A missing file, or one
// written for another API origin, leaves the jar empty.
func (j *Jar) Load() error {
	if j.path == "" {
		return nil
	}
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("invalid session file: %w", err)
	}
	if sf.URL != j.base.String() {
		return nil
	}

	cookies := make([]*http.Cookie, 0, len(sf.Cookies))
	for _, c := range sf.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	j.SetCookies(j.base, cookies)
	return nil
}

// Save writes the origin's cookies to the session file with 0600
// permissions. An empty jar removes the file.
func (j *Jar) Save() error {
	if j.path == "" {
		return nil
	}

	current := j.Cookies(j.base)
	if len(current) == 0 {
		if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	sf := sessionFile{URL: j.base.String(), Cookies: make([]StoredCookie, 0, len(current))}
	for _, c := range current {
		sf.Cookies = append(sf.Cookies, StoredCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(sf)
	if err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0o600)
}
