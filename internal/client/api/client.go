// Package api is the HTTP client for the profile API: CSRF priming, the
// current user, profile updates and logout.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/atinyakov/oauth2profile/internal/client/csrf"
	"github.com/atinyakov/oauth2profile/internal/models"
)

const (
	apiCSRF    = "/api/csrf"
	apiMe      = "/api/me"
	apiProfile = "/api/profile"
	apiLogout  = "/logout"

	// RequestIDHeader carries a per-request id for correlating client and
	// server logs.
	RequestIDHeader = "X-Request-ID"
)

// Provider is an OAuth2 identity provider registered with the API.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// Providers lists the login providers in display order.
var Providers = []Provider{ProviderGoogle, ProviderGitHub}

// Client talks to the profile API.
type Client struct {
	baseURL string
	rc      *resty.Client
	jar     http.CookieJar
	tokens  csrf.Store
	log     *zap.Logger
}

// NewClient creates a Client for baseURL. jar holds the session cookies and
// is only consulted by requests made with WithCredentials; tokens receives a
// descriptor token when the server does not issue a CSRF cookie.
func NewClient(baseURL string, jar http.CookieJar, tokens csrf.Store, log *zap.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	rc := resty.New().
		SetBaseURL(baseURL).
		SetCookieJar(nil).
		SetRedirectPolicy(resty.NoRedirectPolicy()).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetLogger(log.Sugar()).
		OnBeforeRequest(withRequestID)

	return &Client{
		baseURL: baseURL,
		rc:      rc,
		jar:     jar,
		tokens:  tokens,
		log:     log,
	}
}

// SetTransport replaces the underlying round tripper.
func (c *Client) SetTransport(rt http.RoundTripper) *Client {
	if rt != nil {
		c.rc.SetTransport(rt)
	}
	return c
}

// LoginURL is the browser-navigated authorization link for p.
func (c *Client) LoginURL(p Provider) string {
	return c.baseURL + "/oauth2/authorization/" + string(p)
}

func withRequestID(_ *resty.Client, r *resty.Request) error {
	if r.Header.Get(RequestIDHeader) == "" {
		r.SetHeader(RequestIDHeader, uuid.NewString())
	}
	return nil
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	credentials bool
	csrfToken   string
	body        any
}

// WithCredentials sends the jar's cookies with the request and stores the
// cookies set by the response.
func WithCredentials() RequestOption {
	return func(o *requestOptions) { o.credentials = true }
}

// WithCSRF attaches token in the X-XSRF-TOKEN header.
func WithCSRF(token string) RequestOption {
	return func(o *requestOptions) { o.csrfToken = token }
}

// WithJSON sends body encoded as JSON.
func WithJSON(body any) RequestOption {
	return func(o *requestOptions) { o.body = body }
}

// do executes a request. Transport failures are returned wrapped; non-2xx
// responses as *StatusError.
func (c *Client) do(ctx context.Context, method, path string, opts ...RequestOption) (*resty.Response, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	target, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	req := c.rc.R().SetContext(ctx)
	if o.credentials && c.jar != nil {
		req.SetCookies(c.jar.Cookies(target))
	}
	if o.csrfToken != "" {
		req.SetHeader(csrf.HeaderName, o.csrfToken)
	}
	if o.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(o.body)
	}

	resp, err := req.Execute(method, path)
	if resp != nil && resp.RawResponse != nil && o.credentials && c.jar != nil {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			c.jar.SetCookies(target, cookies)
		}
	}

	// NoRedirectPolicy surfaces a 3xx as an error together with the response.
	if resp != nil && resp.StatusCode() >= 300 {
		c.log.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
		)
		return resp, newStatusError(resp.StatusCode(), resp.Body())
	}
	if err != nil {
		return resp, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
	)
	return resp, nil
}

// PrimeCSRF asks the server to issue a CSRF token. The server normally sets
// the XSRF-TOKEN cookie; when the response carries no such cookie, the
// descriptor's token replaces whatever the token store holds.
func (c *Client) PrimeCSRF(ctx context.Context) (models.CSRFDescriptor, error) {
	resp, err := c.do(ctx, http.MethodGet, apiCSRF, WithCredentials())
	if err != nil {
		return models.CSRFDescriptor{}, err
	}

	var desc models.CSRFDescriptor
	body := resp.Body()
	if gjson.ValidBytes(body) {
		desc.HeaderName = gjson.GetBytes(body, "headerName").String()
		desc.ParameterName = gjson.GetBytes(body, "parameterName").String()
		desc.Token = gjson.GetBytes(body, "token").String()
	}

	if c.tokens != nil && desc.Token != "" && !hasCookie(resp.Cookies(), csrf.CookieName) {
		c.tokens.SetToken(desc.Token)
	}
	if desc.HeaderName != "" && !strings.EqualFold(desc.HeaderName, csrf.HeaderName) {
		c.log.Warn("server expects a different csrf header",
			zap.String("header", desc.HeaderName),
			zap.String("using", csrf.HeaderName),
		)
	}
	return desc, nil
}

func hasCookie(cookies []*http.Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Me fetches the current session's user.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	resp, err := c.do(ctx, http.MethodGet, apiMe, WithCredentials())
	if err != nil {
		return models.User{}, err
	}

	var u models.User
	if err := json.Unmarshal(resp.Body(), &u); err != nil {
		return models.User{}, fmt.Errorf("invalid response from %s: %w", apiMe, err)
	}
	if msg := gjson.GetBytes(resp.Body(), "error").String(); msg != "" {
		c.log.Warn("server reported a problem with the session", zap.String("error", msg))
	}
	return u, nil
}

// UpdateProfile posts the editable fields with the CSRF token. It returns
// the 2xx status of the response.
func (c *Client) UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (int, error) {
	resp, err := c.do(ctx, http.MethodPost, apiProfile,
		WithCredentials(),
		WithCSRF(token),
		WithJSON(update),
	)
	if err != nil {
		return StatusCode(err), err
	}
	return resp.StatusCode(), nil
}

// Logout ends the server session. The request has an empty body.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, apiLogout, WithCredentials(), WithCSRF(token))
	return err
}
