package profile

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/oauth2profile/internal/apitest"
	"github.com/atinyakov/oauth2profile/internal/client/api"
	"github.com/atinyakov/oauth2profile/internal/client/csrf"
	"github.com/atinyakov/oauth2profile/internal/client/storage"
	"github.com/atinyakov/oauth2profile/internal/models"
)

type flow struct {
	srv  *apitest.Server
	jar  *storage.Jar
	rec  *recorder
	ctrl *Controller
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	srv := apitest.NewServer(zap.NewNop())
	t.Cleanup(srv.Close)

	jar, err := storage.NewJar(srv.URL, "")
	require.NoError(t, err)
	tokens := csrf.NewCookieStore(jar)
	client := api.NewClient(srv.URL, jar, tokens, zap.NewNop())
	rec := &recorder{}

	return &flow{
		srv:  srv,
		jar:  jar,
		rec:  rec,
		ctrl: NewController(client, tokens, rec, rec, zap.NewNop()),
	}
}

func TestFlow_EditAndSubmit(t *testing.T) {
	f := newFlow(t)
	id := f.srv.Login(models.User{Email: "a@b.com", DisplayName: "A", Bio: "hi"})
	f.jar.SetCookie(storage.SessionCookieName, id)
	ctx := context.Background()

	require.Equal(t, StateAuthenticated, f.ctrl.Load(ctx))
	u, _ := f.ctrl.User()
	assert.Equal(t, "A", u.DisplayName)
	assert.Equal(t, "hi", u.Bio)

	f.ctrl.SetDisplayName("Alice")
	require.NoError(t, f.ctrl.Update(ctx))

	posts := f.srv.RequestsTo(http.MethodPost, "/api/profile")
	require.Len(t, posts, 1)
	assert.Equal(t, f.jar.Cookie(csrf.CookieName), posts[0].CSRF)
	assert.JSONEq(t, `{"displayName":"Alice","bio":"hi"}`, string(posts[0].Body))
	assert.Equal(t, []string{MsgUpdated}, f.rec.alerts)

	stored, _ := f.srv.User(id)
	assert.Equal(t, "Alice", stored.DisplayName)
}

func TestFlow_TokenRejected(t *testing.T) {
	f := newFlow(t)
	id := f.srv.Login(models.User{Email: "a@b.com"})
	f.jar.SetCookie(storage.SessionCookieName, id)
	ctx := context.Background()

	require.Equal(t, StateAuthenticated, f.ctrl.Load(ctx))
	// the browser-side cookie drifted from the server's token
	f.jar.SetCookie(csrf.CookieName, "stale")

	assert.Error(t, f.ctrl.Update(ctx))
	assert.Equal(t, []string{MsgCSRFRejected}, f.rec.alerts)
}

func TestFlow_NotLoggedIn(t *testing.T) {
	f := newFlow(t)

	assert.Equal(t, StateUnauthenticated, f.ctrl.Load(context.Background()))
	assert.Len(t, f.srv.RequestsTo(http.MethodGet, "/api/csrf"), 1)
	assert.Len(t, f.srv.RequestsTo(http.MethodGet, "/api/me"), 1)
}

func TestFlow_ServerDown(t *testing.T) {
	f := newFlow(t)
	f.srv.Close()

	assert.Equal(t, StateUnauthenticated, f.ctrl.Load(context.Background()))
}

func TestFlow_Logout(t *testing.T) {
	f := newFlow(t)
	id := f.srv.Login(models.User{Email: "a@b.com"})
	f.jar.SetCookie(storage.SessionCookieName, id)
	ctx := context.Background()

	require.Equal(t, StateAuthenticated, f.ctrl.Load(ctx))
	require.NoError(t, f.ctrl.Logout(ctx))

	assert.Len(t, f.srv.RequestsTo(http.MethodPost, "/logout"), 1)
	assert.Equal(t, []string{HomeRoute}, f.rec.routes)
	assert.False(t, f.srv.HasSession(id))
}

func TestFlow_LogoutFails(t *testing.T) {
	f := newFlow(t)
	id := f.srv.Login(models.User{Email: "a@b.com"})
	f.jar.SetCookie(storage.SessionCookieName, id)
	ctx := context.Background()

	require.Equal(t, StateAuthenticated, f.ctrl.Load(ctx))
	f.srv.Fail("/logout", http.StatusInternalServerError)

	assert.Error(t, f.ctrl.Logout(ctx))
	assert.Equal(t, []string{MsgLogoutFailed}, f.rec.alerts)
	assert.Empty(t, f.rec.routes)
	assert.True(t, f.srv.HasSession(id))
	_, ok := f.ctrl.User()
	assert.True(t, ok)
}
