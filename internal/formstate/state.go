// Package formstate models one auth form as an explicit finite-state
// machine.
//
//	Idle ──submit──▶ Pending ──invalid──────────────▶ Failed{fields}
//	                         ──outcome error─────────▶ Failed{message}
//	                         ──sign-in success───────▶ Succeeded + Navigate
//	                         ──sign-up success───────▶ Succeeded + Confirm
//	Succeeded|Failed ──submit──▶ Pending
//
// Transitions are pure functions on the State value and always return a
// whole new State.  A transition attempted from the wrong phase returns the
// receiver unchanged.  Navigation is returned as an Intent for the HTTP
// layer to execute; nothing here writes a response.
package formstate

import (
	"strings"

	"github.com/yanizio/gatehouse/internal/action"
	"github.com/yanizio/gatehouse/internal/form"
)

// Phase is where a form is in its cycle.
type Phase int

const (
	Idle Phase = iota
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "idle"
}

// State is the complete observable state of one form.  Error is set only
// in Failed.
type State struct {
	Phase Phase
	Error *action.Error
}

// IntentKind tells the caller what to do after a transition.
type IntentKind int

const (
	NoIntent IntentKind = iota
	Navigate            // redirect the browser to Intent.URL
	Confirm             // render the confirmation view in place
)

// Intent is a navigation side effect described as data.
type Intent struct {
	Kind IntentKind
	URL  string
}

// DefaultDestination is used when no usable callback URL was supplied.
const DefaultDestination = "/"

// Submit moves any non-pending state to Pending.  ok is false, and the
// state unchanged, when a submission is already pending.
func (s State) Submit() (next State, ok bool) {
	if s.Phase == Pending {
		return s, false
	}
	return State{Phase: Pending}, true
}

// Invalid records a validation failure.  No dispatcher call is implied.
func (s State) Invalid(fields form.FieldErrors) State {
	if s.Phase != Pending {
		return s
	}
	return State{Phase: Failed, Error: action.Validation(fields)}
}

// Resolve folds a dispatcher outcome into the state.  Sign-in success
// navigates to callbackURL (or DefaultDestination); sign-up success asks
// for the confirmation view and never navigates.
func (s State) Resolve(mode form.Mode, out action.Outcome, callbackURL string) (State, Intent) {
	if s.Phase != Pending {
		return s, Intent{}
	}
	if !out.OK() {
		return State{Phase: Failed, Error: out.Err}, Intent{}
	}
	if mode == form.SignUp {
		return State{Phase: Succeeded}, Intent{Kind: Confirm}
	}
	return State{Phase: Succeeded}, Intent{Kind: Navigate, URL: SafeCallback(callbackURL)}
}

// SafeCallback accepts only local absolute paths such as "/account".
// Protocol-relative and absolute URLs, backslash tricks, and anything else
// fall back to DefaultDestination.
func SafeCallback(raw string) string {
	switch {
	case raw == "",
		!strings.HasPrefix(raw, "/"),
		strings.HasPrefix(raw, "//"),
		strings.HasPrefix(raw, "/\\"),
		strings.ContainsAny(raw, "\r\n\t"):
		return DefaultDestination
	}
	return raw
}
