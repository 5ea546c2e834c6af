package shell

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/oauth2profile/internal/apitest"
	"github.com/atinyakov/oauth2profile/internal/client/api"
	"github.com/atinyakov/oauth2profile/internal/client/csrf"
	"github.com/atinyakov/oauth2profile/internal/client/profile"
	"github.com/atinyakov/oauth2profile/internal/client/storage"
	"github.com/atinyakov/oauth2profile/internal/models"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		route string
		want  View
	}{
		{route: "/profile", want: ViewProfile},
		{route: "/", want: ViewLanding},
		{route: "", want: ViewLanding},
		{route: "/profile/", want: ViewLanding},
		{route: "/Profile", want: ViewLanding},
		{route: "/unknown", want: ViewLanding},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.route))
		})
	}
}

type harness struct {
	srv    *apitest.Server
	jar    *storage.Jar
	client *api.Client
	tokens csrf.Store
	out    *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.NewServer(zap.NewNop())
	t.Cleanup(srv.Close)

	jar, err := storage.NewJar(srv.URL, "")
	require.NoError(t, err)
	tokens := csrf.NewCookieStore(jar)

	return &harness{
		srv:    srv,
		jar:    jar,
		client: api.NewClient(srv.URL, jar, tokens, zap.NewNop()),
		tokens: tokens,
		out:    &bytes.Buffer{},
	}
}

func (h *harness) run(t *testing.T, route string, lines ...string) {
	t.Helper()
	sh := New(Config{
		API:     h.client,
		Links:   h.client,
		Tokens:  h.tokens,
		Session: h.jar,
		In:      strings.NewReader(strings.Join(lines, "\n") + "\n"),
		Out:     h.out,
		Fd:      -1,
		Log:     zap.NewNop(),
	})
	require.NoError(t, sh.Run(context.Background(), route))
}

func (h *harness) login(u models.User) string {
	id := h.srv.Login(u)
	h.jar.SetCookie(storage.SessionCookieName, id)
	return id
}

func TestRun_Landing(t *testing.T) {
	h := newHarness(t)
	h.run(t, "/anything", "help", "bogus", "exit")

	out := h.out.String()
	assert.Contains(t, out, "Login with Google: "+h.srv.URL+"/oauth2/authorization/google")
	assert.Contains(t, out, "Login with GitHub: "+h.srv.URL+"/oauth2/authorization/github")
	assert.Contains(t, out, "Unknown command")
	assert.Empty(t, h.srv.Requests(), "landing view makes no requests")
}

func TestRun_ProfilePrefilled(t *testing.T) {
	h := newHarness(t)
	h.login(models.User{Email: "a@b.com", DisplayName: "A", Bio: "hi"})

	h.run(t, ProfileRoute, "exit")

	out := h.out.String()
	assert.Contains(t, out, "Email:        a@b.com")
	assert.Contains(t, out, "Display Name: A")
	assert.Contains(t, out, "Bio:          hi")
}

func TestRun_NotLoggedIn(t *testing.T) {
	h := newHarness(t)
	h.run(t, ProfileRoute, "name X", "home", "exit")

	out := h.out.String()
	assert.Contains(t, out, "Not logged in.")
	assert.NotContains(t, out, "Display Name")
	assert.Contains(t, out, "Welcome", "home navigates to the landing view")
	assert.Empty(t, h.srv.RequestsTo(http.MethodPost, "/api/profile"))
}

func TestRun_EditUpdateLogout(t *testing.T) {
	h := newHarness(t)
	id := h.login(models.User{Email: "a@b.com", DisplayName: "A", Bio: "hi"})

	h.run(t, ProfileRoute, "name Alice Liddell", "update", "show", "logout", "exit")

	out := h.out.String()
	assert.Contains(t, out, "! "+profile.MsgUpdated)
	assert.Contains(t, out, "Display Name: Alice Liddell")
	assert.Contains(t, out, "Welcome", "logout navigates to the landing view")

	posts := h.srv.RequestsTo(http.MethodPost, "/api/profile")
	require.Len(t, posts, 1)
	assert.NotEmpty(t, posts[0].CSRF)
	assert.JSONEq(t, `{"displayName":"Alice Liddell","bio":"hi"}`, string(posts[0].Body))

	require.Len(t, h.srv.RequestsTo(http.MethodPost, "/logout"), 1)
	assert.False(t, h.srv.HasSession(id))
}

func TestRun_LogoutClearsSavedSession(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "session.json")
	jar, err := storage.NewJar(h.srv.URL, path)
	require.NoError(t, err)
	h.jar = jar
	h.tokens = csrf.NewCookieStore(jar)
	h.client = api.NewClient(h.srv.URL, jar, h.tokens, zap.NewNop())

	h.login(models.User{Email: "a@b.com"})
	// not expired by the server on logout
	jar.SetCookie("remember-me", "r1")

	h.run(t, ProfileRoute, "logout", "exit")

	assert.Empty(t, jar.Cookies(jar.BaseURL()))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "session file removed")
}

func TestRun_DescriptorTokenAfterSessionChange(t *testing.T) {
	h := newHarness(t)
	h.srv.DescriptorOnly = true
	id := h.srv.Login(models.User{Email: "a@b.com", DisplayName: "A"})

	h.run(t, ProfileRoute, "home", "session", id, "profile", "name B", "update", "exit")

	out := h.out.String()
	assert.Contains(t, out, "Not logged in.")
	assert.Contains(t, out, "! "+profile.MsgUpdated)
	assert.NotContains(t, out, profile.MsgCSRFRejected)

	u, ok := h.srv.User(id)
	require.True(t, ok)
	assert.Equal(t, "B", u.DisplayName)
}

func TestRun_UpdateRejected(t *testing.T) {
	h := newHarness(t)
	h.login(models.User{Email: "a@b.com"})
	h.srv.Fail("/api/profile", http.StatusForbidden)

	h.run(t, ProfileRoute, "bio new", "update", "show", "exit")

	out := h.out.String()
	assert.Contains(t, out, "! "+profile.MsgCSRFRejected)
	assert.Contains(t, out, "Bio:          new")
}

func TestRun_MissingToken(t *testing.T) {
	h := newHarness(t)
	h.login(models.User{Email: "a@b.com"})
	h.tokens = &csrf.MemoryStore{}

	h.run(t, ProfileRoute, "name B", "update", "logout", "exit")

	out := h.out.String()
	assert.Equal(t, 2, strings.Count(out, "! "+profile.MsgMissingToken))
	assert.Empty(t, h.srv.RequestsTo(http.MethodPost, "/api/profile"))
	assert.Empty(t, h.srv.RequestsTo(http.MethodPost, "/logout"))
	assert.NotContains(t, out, "Welcome")
}

func TestRun_LogoutFails(t *testing.T) {
	h := newHarness(t)
	h.login(models.User{Email: "a@b.com"})
	h.srv.Fail("/logout", http.StatusInternalServerError)

	h.run(t, ProfileRoute, "logout", "show", "exit")

	out := h.out.String()
	assert.Contains(t, out, "! "+profile.MsgLogoutFailed)
	assert.NotContains(t, out, "Welcome")
	assert.Equal(t, 2, strings.Count(out, "Email:        a@b.com"))
}

func TestRun_ImportSession(t *testing.T) {
	h := newHarness(t)
	id := h.srv.Login(models.User{Email: "a@b.com", DisplayName: "A"})

	h.run(t, HomeRoute, "session", id, "profile", "exit")

	assert.Equal(t, id, h.jar.Cookie(storage.SessionCookieName))
	assert.Contains(t, h.out.String(), "Display Name: A")
}

func TestRun_EndOfInput(t *testing.T) {
	h := newHarness(t)
	h.run(t, HomeRoute)
	assert.Contains(t, h.out.String(), "Welcome")
}

func TestRun_Cancelled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sh := New(Config{Links: h.client, In: strings.NewReader(""), Out: h.out, Log: zap.NewNop()})
	assert.ErrorIs(t, sh.Run(ctx, HomeRoute), context.Canceled)
}
