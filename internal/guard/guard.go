// Package guard decides whether a request for one of the session-gated
// pages may proceed or must be redirected.
//
// Only the literal paths "/", "/sign-in", and "/sign-up" are guarded.  Any
// other path, including ones that look private, bypasses the guard without
// a session lookup.
package guard

// Paths in the matcher set.
const (
	Home   = "/"
	SignIn = "/sign-in"
	SignUp = "/sign-up"
)

// Kind enumerates guard outcomes.
type Kind int

const (
	Allow Kind = iota
	Redirect
)

func (k Kind) String() string {
	if k == Redirect {
		return "redirect"
	}
	return "allow"
}

// Action is the decision for one request.  URL is set only for Redirect.
type Action struct {
	Kind Kind
	URL  string
}

// RedirectTo builds a redirect decision.
func RedirectTo(url string) Action { return Action{Kind: Redirect, URL: url} }

// Guarded reports whether path is in the matcher set.
func Guarded(path string) bool {
	switch path {
	case Home, SignIn, SignUp:
		return true
	}
	return false
}

// Decide applies the rules in order, first match wins:
//
//  1. signed in on a sign-in or sign-up page  → redirect home
//  2. signed out on the home page             → redirect to sign-in
//  3. anything else                           → allow
func Decide(path string, hasSession bool) Action {
	switch {
	case hasSession && (path == SignIn || path == SignUp):
		return RedirectTo(Home)
	case !hasSession && path == Home:
		return RedirectTo(SignIn)
	default:
		return Action{Kind: Allow}
	}
}
