// internal/authapi/client.go
//
// HTTP client for the external authentication service.
//
// Context
// -------
// Credential storage, hashing, session minting, rate limiting, and CSRF
// checks all live in a better-auth compatible service rooted at
// auth.base_url.  This package is the only code that speaks its wire
// protocol:
//
//	POST /sign-in/email   {email, password}
//	POST /sign-up/email   {name, email, password}
//	POST /sign-out        {}
//	GET  /get-session     → null | {session, user}
//
// Browser headers the service relies on (cookies, origin, client IP) are
// forwarded, and every Set-Cookie it returns is handed back in Reply so the
// handler can relay it.
//
// Retries
// -------
// Session lookups are idempotent GETs and go through go-retryablehttp with a
// small budget.  POSTs go through a plain client exactly once: repeating a
// sign-up may create a duplicate account and repeating a sign-in burns the
// service’s rate limit.
//
// Errors
// ------
// A non-2xx reply below 500 is a *Rejection carrying the service’s code and
// message.  Anything else (transport failure, 5xx, undecodable body) is a
// plain wrapped error.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/yanizio/gatehouse/internal/session"
)

// Endpoint paths relative to the base URL.
const (
	pathSignIn     = "/sign-in/email"
	pathSignUp     = "/sign-up/email"
	pathSignOut    = "/sign-out"
	pathGetSession = "/get-session"
)

// maxBody caps how much of a reply is read.
const maxBody = 1 << 20

// Options configures New.
type Options struct {
	BaseURL       string        // e.g. http://auth.internal:3000/api/auth
	Timeout       time.Duration // per call; 0 means bound only by ctx
	LookupRetries int           // extra GET attempts for GetSession
	HTTPClient    *http.Client  // nil → new client without a timeout
	Logger        *zap.SugaredLogger
}

// Client is safe for concurrent use.
type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
	lookup  *retryablehttp.Client
}

// Compile-time assertion: *Client satisfies session.Lookup.
var _ session.Lookup = (*Client)(nil)

// New validates the base URL and builds both transports.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("authapi: invalid base url %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = hc
	rc.RetryMax = opts.LookupRetries
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.Logger = leveled{log.With("component", "authapi")}

	return &Client{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		http:    hc,
		lookup:  rc,
	}, nil
}

// Reply is a successful sign-in, sign-up, or sign-out response.
type Reply struct {
	Status    int
	Token     string
	Redirect  bool
	URL       string
	User      *session.User
	SetCookie []string // raw Set-Cookie values, relayed verbatim
}

// wireReply mirrors the service’s JSON.  Sign-out only sets Success.
type wireReply struct {
	Token    string        `json:"token"`
	Redirect bool          `json:"redirect"`
	URL      string        `json:"url"`
	User     *session.User `json:"user"`
	Success  bool          `json:"success"`
}

// SignInEmail posts credentials to /sign-in/email.
func (c *Client) SignInEmail(ctx context.Context, email, password string, h http.Header) (*Reply, error) {
	return c.post(ctx, pathSignIn, map[string]string{
		"email":    email,
		"password": password,
	}, h)
}

// SignUpEmail posts a new account to /sign-up/email.
func (c *Client) SignUpEmail(ctx context.Context, name, email, password string, h http.Header) (*Reply, error) {
	return c.post(ctx, pathSignUp, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, h)
}

// SignOut ends the session identified by the forwarded cookies.
func (c *Client) SignOut(ctx context.Context, h http.Header) (*Reply, error) {
	return c.post(ctx, pathSignOut, map[string]string{}, h)
}

// GetSession implements session.Lookup.  A null body or a 401 means no
// session.
func (c *Client) GetSession(ctx context.Context, h http.Header) (*session.Session, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.base+pathGetSession, nil)
	if err != nil {
		return nil, err
	}
	copyForwarded(req.Header, h)
	req.Header.Set("Accept", "application/json")

	resp, err := c.lookup.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authapi get-session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("authapi get-session: read body: %w", err)
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var wire struct {
		Session *session.Session `json:"session"`
		User    *session.User    `json:"user"`
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("authapi get-session: decode: %w", err)
	}
	if wire.Session == nil || wire.User == nil {
		return nil, nil
	}
	wire.Session.User = *wire.User
	return wire.Session, nil
}

// post sends one JSON request, never retried.
func (c *Client) post(ctx context.Context, path string, payload any, h http.Header) (*Reply, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	copyForwarded(req.Header, h)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authapi %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("authapi %s: read body: %w", path, err)
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var wire wireReply
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, fmt.Errorf("authapi %s: decode: %w", path, err)
		}
	}
	return &Reply{
		Status:    resp.StatusCode,
		Token:     wire.Token,
		Redirect:  wire.Redirect,
		URL:       wire.URL,
		User:      wire.User,
		SetCookie: resp.Header.Values("Set-Cookie"),
	}, nil
}

// bound applies the configured timeout, if any.
func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

// statusError maps a non-2xx reply to an error.  2xx returns nil.
func statusError(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500 || status < 400:
		return fmt.Errorf("authapi: unexpected status %d", status)
	}

	rej := &Rejection{Status: status}
	var wire struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wire) == nil {
		rej.Code, rej.Message = wire.Code, wire.Message
	}
	if rej.Message == "" {
		if status == http.StatusTooManyRequests {
			rej.Message = TooManyRequestsMessage
		} else {
			rej.Message = http.StatusText(status)
		}
	}
	return rej
}

// IsRejection reports whether err carries a *Rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}
