// Package profile implements the profile view's controller: it loads the
// session's user, keeps the edit state, and submits updates and logout with
// the CSRF token attached.
package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/atinyakov/oauth2profile/internal/client/api"
	"github.com/atinyakov/oauth2profile/internal/client/csrf"
	"github.com/atinyakov/oauth2profile/internal/models"
)

// User-facing notices.
const (
	MsgMissingToken  = "Could not find CSRF token. Please refresh the page and try again."
	MsgUpdated       = "Profile updated successfully!"
	MsgCSRFRejected  = "Update failed: CSRF token validation failed. Please refresh the page and try again."
	MsgUpdateFailed  = "Failed to update profile. Check console for details."
	MsgLogoutFailed  = "Logout failed. Please try again."
	msgUpdateStatusF = "Update failed with status: %d"
)

// HomeRoute is where a successful logout navigates to.
const HomeRoute = "/"

// State of the controller.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// API is the part of the API client the controller uses.
type API interface {
	PrimeCSRF(ctx context.Context) (models.CSRFDescriptor, error)
	Me(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (int, error)
	Logout(ctx context.Context, token string) error
}

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Alert(msg string)
}

// Navigator changes the current route.
type Navigator interface {
	Navigate(route string)
}

// Controller holds the profile view's state.
type Controller struct {
	api    API
	tokens csrf.Store
	notify Notifier
	nav    Navigator
	log    *zap.Logger

	mu     sync.Mutex
	state  State
	user   *models.User
	saving atomic.Bool
}

// NewController returns a controller in the loading state.
func NewController(a API, tokens csrf.Store, notify Notifier, nav Navigator, log *zap.Logger) *Controller {
	return &Controller{
		api:    a,
		tokens: tokens,
		notify: notify,
		nav:    nav,
		log:    log,
		state:  StateLoading,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns a copy of the edit state. ok is false unless authenticated.
func (c *Controller) User() (u models.User, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return models.User{}, false
	}
	return *c.user, true
}

// Saving reports whether an update request is in flight.
func (c *Controller) Saving() bool {
	return c.saving.Load()
}

// Load primes the CSRF cookie and fetches the user. Any failure is treated
// as not being logged in.
func (c *Controller) Load(ctx context.Context) State {
	u, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Error("could not fetch data", zap.Error(err))
		c.user = nil
		c.state = StateUnauthenticated
		return c.state
	}
	if !u.Authenticated {
		c.user = nil
		c.state = StateUnauthenticated
		return c.state
	}
	c.user = &u
	c.state = StateAuthenticated
	return c.state
}

func (c *Controller) fetch(ctx context.Context) (models.User, error) {
	if _, err := c.api.PrimeCSRF(ctx); err != nil {
		return models.User{}, fmt.Errorf("prime csrf: %w", err)
	}
	u, err := c.api.Me(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("fetch user: %w", err)
	}
	return u, nil
}

// SetDisplayName edits the local display name.
func (c *Controller) SetDisplayName(name string) {
	c.edit(func(u *models.User) { u.DisplayName = name })
}

// SetBio edits the local bio.
func (c *Controller) SetBio(bio string) {
	c.edit(func(u *models.User) { u.Bio = bio })
}

func (c *Controller) edit(fn func(*models.User)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != nil {
		fn(c.user)
	}
}

// Update submits the edited fields. Without a CSRF token no request is made.
// The local edit state is kept whatever the outcome.
func (c *Controller) Update(ctx context.Context) error {
	u, ok := c.User()
	if !ok {
		return ErrNotAuthenticated
	}

	token := c.tokens.Token()
	if token == "" {
		c.notify.Alert(MsgMissingToken)
		return ErrMissingToken
	}

	if !c.saving.CompareAndSwap(false, true) {
		return ErrSaving
	}
	defer c.saving.Store(false)

	status, err := c.api.UpdateProfile(ctx, token, u.Update())
	switch {
	case err == nil && status == http.StatusOK:
		c.notify.Alert(MsgUpdated)
		return nil
	case err == nil:
		c.notify.Alert(fmt.Sprintf(msgUpdateStatusF, status))
		return fmt.Errorf("update profile: unexpected status %d", status)
	case errors.Is(err, api.ErrCSRFRejected):
		c.log.Error("update failed", zap.Error(err))
		c.notify.Alert(MsgCSRFRejected)
		return err
	default:
		c.log.Error("update failed", zap.Error(err))
		c.notify.Alert(MsgUpdateFailed)
		return err
	}
}

// Logout ends the session and navigates home. On failure the view is left
// as it was.
func (c *Controller) Logout(ctx context.Context) error {
	token := c.tokens.Token()
	if token == "" {
		c.notify.Alert(MsgMissingToken)
		return ErrMissingToken
	}

	if err := c.api.Logout(ctx, token); err != nil {
		c.log.Error("logout failed", zap.Error(err))
		c.notify.Alert(MsgLogoutFailed)
		return err
	}

	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()

	c.nav.Navigate(HomeRoute)
	return nil
}
