// internal/authapi/client_test.go
//
// Exercises the wire protocol against an httptest server.
//
// Run: go test ./internal/authapi -v

package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func newClient(t *testing.T, h http.Handler, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{
		BaseURL:       srv.URL + "/api/auth/",
		LookupRetries: retries,
		Logger:        zap.NewNop().Sugar(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"", "auth.internal", "://x"} {
		if _, err := New(Options{BaseURL: u}); err == nil {
			t.Errorf("New(%q) accepted", u)
		}
	}
}

func TestSignInEmail_ForwardsAndRelays(t *testing.T) {
	var got struct {
		path, cookie, origin, auth, ctype string
		body                              map[string]string
	}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.cookie = r.Header.Get("Cookie")
		got.origin = r.Header.Get("Origin")
		got.auth = r.Header.Get("Authorization")
		got.ctype = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got.body)

		w.Header().Add("Set-Cookie", "better-auth.session_token=abc; Path=/; HttpOnly")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"redirect":false,"token":"abc","user":{"id":"u1","email":"a@b.co","name":"Ada","emailVerified":true}}`))
	}), 0)

	h := http.Header{}
	h.Set("Cookie", "x=1")
	h.Set("Origin", "https://app.example.com")
	h.Set("Authorization", "Bearer leak")

	rep, err := c.SignInEmail(context.Background(), "a@b.co", "pw", h)
	if err != nil {
		t.Fatalf("SignInEmail: %v", err)
	}
	if got.path != "/api/auth/sign-in/email" {
		t.Fatalf("path = %q", got.path)
	}
	if got.cookie != "x=1" || got.origin != "https://app.example.com" {
		t.Fatalf("forwarded headers missing: %+v", got)
	}
	if got.auth != "" {
		t.Fatal("Authorization header forwarded")
	}
	if got.ctype != "application/json" || got.body["email"] != "a@b.co" || got.body["password"] != "pw" {
		t.Fatalf("body = %#v (%s)", got.body, got.ctype)
	}
	if rep.Token != "abc" || rep.User == nil || rep.User.Name != "Ada" || !rep.User.EmailVerified {
		t.Fatalf("reply = %+v", rep)
	}
	if len(rep.SetCookie) != 1 {
		t.Fatalf("set-cookie = %v", rep.SetCookie)
	}
}

func TestPost_Rejections(t *testing.T) {
	cases := []struct {
		status  int
		body    string
		code    string
		message string
	}{
		{http.StatusUnauthorized, `{"code":"INVALID_EMAIL_OR_PASSWORD","message":"Invalid email or password"}`,
			"INVALID_EMAIL_OR_PASSWORD", "Invalid email or password"},
		{http.StatusUnprocessableEntity, `{"code":"USER_ALREADY_EXISTS","message":"User already exists"}`,
			"USER_ALREADY_EXISTS", "User already exists"},
		{http.StatusTooManyRequests, ``, "", TooManyRequestsMessage},
		{http.StatusForbidden, `not json`, "", "Forbidden"},
	}
	for _, tc := range cases {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}), 0)

		_, err := c.SignUpEmail(context.Background(), "Ada", "a@b.co", "password1", nil)
		var rej *Rejection
		if !errors.As(err, &rej) {
			t.Fatalf("status %d: err = %v, want *Rejection", tc.status, err)
		}
		if rej.Status != tc.status || rej.Code != tc.code || rej.Message != tc.message {
			t.Errorf("status %d: rejection = %+v", tc.status, rej)
		}
	}
}

func TestPost_ServerErrorIsNotRejection(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"message":"db down"}`, http.StatusInternalServerError)
	}), 3)

	_, err := c.SignOut(context.Background(), nil)
	if err == nil || IsRejection(err) {
		t.Fatalf("err = %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("POST attempted %d times, want 1", n)
	}
}

func TestPost_UndecodableSuccess(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}), 0)
	if _, err := c.SignInEmail(context.Background(), "a@b.co", "pw", nil); err == nil || IsRejection(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestGetSession(t *testing.T) {
	body := `{"session":{"id":"s1","userId":"u1","expiresAt":"2030-01-02T03:04:05.000Z"},` +
		`"user":{"id":"u1","email":"a@b.co","name":"Ada","emailVerified":false}}`
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/get-session" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Cookie") == "" {
			_, _ = w.Write([]byte(`null`))
			return
		}
		_, _ = w.Write([]byte(body))
	}), 0)

	s, err := c.GetSession(context.Background(), http.Header{})
	if err != nil || s != nil {
		t.Fatalf("anonymous: %+v, %v", s, err)
	}

	h := http.Header{}
	h.Set("Cookie", "better-auth.session_token=abc")
	s, err = c.GetSession(context.Background(), h)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s == nil || s.ID != "s1" || s.User.Email != "a@b.co" || s.ExpiresAt.Year() != 2030 {
		t.Fatalf("session = %+v", s)
	}
}

func TestGetSession_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`null`))
	}), 2)

	s, err := c.GetSession(context.Background(), nil)
	if err != nil || s != nil {
		t.Fatalf("GetSession: %+v, %v", s, err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
}

func TestGetSession_UnauthorizedMeansNone(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), 0)
	s, err := c.GetSession(context.Background(), nil)
	if err != nil || s != nil {
		t.Fatalf("GetSession: %+v, %v", s, err)
	}
}

func TestRequestHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/sign-in", nil)
	r.RemoteAddr = "203.0.113.9:51000"
	r.Header.Set("Cookie", "x=1")
	r.Header.Set("Authorization", "Basic nope")

	h := RequestHeaders(r)
	if h.Get("X-Forwarded-For") != "203.0.113.9" {
		t.Fatalf("xff = %q", h.Get("X-Forwarded-For"))
	}
	if h.Get("Cookie") != "x=1" || h.Get("Authorization") != "" {
		t.Fatalf("headers = %v", h)
	}

	rec := httptest.NewRecorder()
	RelayCookies(rec, &Reply{SetCookie: []string{"a=1", "b=2"}})
	if got := rec.Header().Values("Set-Cookie"); len(got) != 2 {
		t.Fatalf("relayed = %v", got)
	}
}

func TestRequestHeaders_SpoofedForwardedForDropped(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/sign-in", nil)
	r.RemoteAddr = "198.51.100.7:40000"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	r.Header.Add("X-Forwarded-For", "5.6.7.8")

	h := RequestHeaders(r)
	if got := h.Values("X-Forwarded-For"); len(got) != 1 || got[0] != "198.51.100.7" {
		t.Fatalf("xff = %v", got)
	}
}

func TestSignIn_ForwardsPeerNotSpoofedIP(t *testing.T) {
	var seen string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Forwarded-For")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"abc","user":{"id":"u1","name":"Ada","email":"a@b.co"}}`))
	}), 0)

	r := httptest.NewRequest(http.MethodPost, "/sign-in", nil)
	r.RemoteAddr = "198.51.100.7:40000"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")

	if _, err := c.SignInEmail(context.Background(), "a@b.co", "pw", RequestHeaders(r)); err != nil {
		t.Fatalf("SignInEmail: %v", err)
	}
	if seen != "198.51.100.7" {
		t.Fatalf("service saw xff %q", seen)
	}
}
