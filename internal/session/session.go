// internal/session/session.go
//
// Gatehouse – session model and lookup contract.
//
// Context
//   Sessions are minted, stored, and verified by the external authentication
//   service.  Gatehouse only asks “is there a session for these request
//   headers, and whose is it?” once per guarded request, then carries the
//   answer in the request context so handlers can greet the user without a
//   second round trip.
//
//   The concrete Lookup lives in internal/authapi.  Tests use a fake.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"net/http"
	"time"
)

// User is the identity attached to a session.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"emailVerified"`
}

// Session is the collaborator’s view of a signed-in browser.  Only its
// presence and User matter to Gatehouse.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"-"`
}

// Lookup resolves a session from request headers.  (nil, nil) means no
// session; an error means the answer is unknown.
type Lookup interface {
	GetSession(ctx context.Context, h http.Header) (*Session, error)
}

// LookupFunc adapts a plain function to Lookup.
type LookupFunc func(ctx context.Context, h http.Header) (*Session, error)

// GetSession implements Lookup.
func (f LookupFunc) GetSession(ctx context.Context, h http.Header) (*Session, error) {
	return f(ctx, h)
}

// ctxKey is unexported to avoid context-key collisions.
type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.  A nil s is stored as-is so
// FromContext reports ok == false.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext extracts the session stored by WithSession.
//
// ok == false when no session was stored or the stored one is nil.
func FromContext(ctx context.Context) (s *Session, ok bool) {
	s, _ = ctx.Value(ctxKey{}).(*Session)
	return s, s != nil
}
