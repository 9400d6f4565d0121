// internal/formstate/form.go
//
// One live form instance.
//
// Context
// -------
// Form wraps a State behind a mutex and drives the full cycle:
//
//	Submit → Validate → (invalid) Invalid
//	                  → (valid)   Dispatch → Resolve
//
// The mutex is held only while reading or replacing the state, never
// across the dispatcher call.  A second Submit that arrives while the
// first is still waiting on the network therefore sees Pending, is
// rejected with ErrPending, and performs no dispatcher call.
//
// The dispatcher call is bound to ctx.  When the browser goes away the
// call fails, the outcome is an error, and the form leaves Pending.

package formstate

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/yanizio/gatehouse/internal/action"
	"github.com/yanizio/gatehouse/internal/authapi"
	"github.com/yanizio/gatehouse/internal/form"
	"github.com/yanizio/gatehouse/internal/metrics"
)

// ErrPending is returned when a submission is already in flight.
var ErrPending = errors.New("formstate: submission already pending")

// Validator validates raw input for a mode.  *form.Schema satisfies it.
type Validator interface {
	Validate(mode form.Mode, raw url.Values) form.Result
}

// Dispatcher runs the action for a mode.  *action.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, mode form.Mode, c form.Credentials, h http.Header) action.Outcome
}

// Submission is what one accepted Submit produced.
type Submission struct {
	State  State
	Intent Intent
	Result form.Result    // validation result, errors included
	Reply  *authapi.Reply // set on success; carries cookies to relay
}

// Form is safe for concurrent use.
type Form struct {
	mode form.Mode
	v    Validator
	d    Dispatcher

	mu    sync.Mutex
	state State
}

// NewForm returns an Idle form.
func NewForm(mode form.Mode, v Validator, d Dispatcher) *Form {
	return &Form{mode: mode, v: v, d: d}
}

// Mode reports which form this is.
func (f *Form) Mode() form.Mode { return f.mode }

// State returns a snapshot.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit runs one submission.  raw is the posted form; its callbackUrl
// value is honoured on sign-in success.
func (f *Form) Submit(ctx context.Context, raw url.Values, h http.Header) (Submission, error) {
	f.mu.Lock()
	next, ok := f.state.Submit()
	if !ok {
		f.mu.Unlock()
		metrics.FormSubmissions.WithLabelValues(string(f.mode), "ignored").Inc()
		return Submission{State: next}, ErrPending
	}
	f.state = next
	f.mu.Unlock()

	res := f.v.Validate(f.mode, raw)
	if !res.Valid() {
		f.mu.Lock()
		f.state = f.state.Invalid(res.Errors)
		st := f.state
		f.mu.Unlock()
		metrics.FormSubmissions.WithLabelValues(string(f.mode), "invalid").Inc()
		return Submission{State: st, Result: res}, nil
	}

	out := f.d.Dispatch(ctx, f.mode, res.Credentials, h)

	f.mu.Lock()
	st, intent := f.state.Resolve(f.mode, out, raw.Get(form.CallbackField))
	f.state = st
	f.mu.Unlock()
	metrics.FormSubmissions.WithLabelValues(string(f.mode), "accepted").Inc()

	return Submission{State: st, Intent: intent, Result: res, Reply: out.Reply}, nil
}
