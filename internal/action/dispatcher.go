// internal/action/dispatcher.go
//
// Auth action dispatcher.
//
// Context
// -------
// The dispatcher is the only place Gatehouse talks to the authentication
// service on a user’s behalf.  It receives already-validated credentials,
// calls the service once, and folds every possible result into an Outcome:
//
//	reply                → success, carrying the reply (cookies to relay)
//	*authapi.Rejection   → KindAuth, the service’s message
//	anything else        → KindUnexpected, a generic per-action message
//
// Nothing here retries.  Repeating a sign-in or sign-up is not idempotent,
// so callers must keep at most one call in flight per form (formstate does
// this).  Repeating a sign-out is safe.
//
// Each outcome is counted in auth_actions_total and, when a Recorder is
// configured, written to the audit trail.  A recorder failure is logged and
// never changes the outcome.
package action

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/yanizio/gatehouse/internal/audit"
	"github.com/yanizio/gatehouse/internal/authapi"
	"github.com/yanizio/gatehouse/internal/clientinfo"
	"github.com/yanizio/gatehouse/internal/form"
	"github.com/yanizio/gatehouse/internal/logger"
	"github.com/yanizio/gatehouse/internal/metrics"
)

// Name identifies a dispatcher operation.
type Name string

const (
	SignIn  Name = "sign-in"
	SignUp  Name = "sign-up"
	SignOut Name = "sign-out"
)

// unexpectedMessages are shown when the cause must stay private.
var unexpectedMessages = map[Name]string{
	SignIn:  "An error occurred during sign in. Please try again.",
	SignUp:  "An error occurred during sign up. Please try again.",
	SignOut: "An error occurred during sign out. Please try again.",
}

// UnexpectedMessage returns the generic message for n.
func UnexpectedMessage(n Name) string { return unexpectedMessages[n] }

// Outcome is the result of one dispatcher call.  Exactly one of Reply and
// Err is set.
type Outcome struct {
	Reply *authapi.Reply
	Err   *Error
}

// OK reports success.
func (o Outcome) OK() bool { return o.Err == nil }

// Failed wraps e as an Outcome.
func Failed(e *Error) Outcome { return Outcome{Err: e} }

// Authenticator is the subset of *authapi.Client the dispatcher needs.
type Authenticator interface {
	SignInEmail(ctx context.Context, email, password string, h http.Header) (*authapi.Reply, error)
	SignUpEmail(ctx context.Context, name, email, password string, h http.Header) (*authapi.Reply, error)
	SignOut(ctx context.Context, h http.Header) (*authapi.Reply, error)
}

// Recorder persists audit events.  *audit.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, ev audit.Event) error
}

// auditTimeout bounds one best-effort audit write.
const auditTimeout = 2 * time.Second

// Dispatcher forwards actions to an Authenticator.
type Dispatcher struct {
	auth    Authenticator
	rec     Recorder
	clients *clientinfo.Resolver
}

// Option customises New.
type Option func(*Dispatcher)

// WithRecorder enables the audit trail.
func WithRecorder(r Recorder) Option { return func(d *Dispatcher) { d.rec = r } }

// WithClientInfo sets the resolver used to describe clients in audit
// events.  Without it events still carry the client IP and user agent,
// but no country.
func WithClientInfo(r *clientinfo.Resolver) Option { return func(d *Dispatcher) { d.clients = r } }

// New returns a Dispatcher over auth.
func New(auth Authenticator, opts ...Option) *Dispatcher {
	d := &Dispatcher{auth: auth}
	for _, o := range opts {
		o(d)
	}
	return d
}

// SignIn forwards email and password.
func (d *Dispatcher) SignIn(ctx context.Context, c form.Credentials, h http.Header) Outcome {
	rep, err := d.auth.SignInEmail(ctx, c.Email, c.Password, h)
	return d.finish(ctx, SignIn, h, rep, err)
}

// SignUp forwards name, email, and password.
func (d *Dispatcher) SignUp(ctx context.Context, c form.Credentials, h http.Header) Outcome {
	rep, err := d.auth.SignUpEmail(ctx, c.Name, c.Email, c.Password, h)
	return d.finish(ctx, SignUp, h, rep, err)
}

// SignOut ends the current session.  It never carries field errors.
func (d *Dispatcher) SignOut(ctx context.Context, h http.Header) Outcome {
	rep, err := d.auth.SignOut(ctx, h)
	return d.finish(ctx, SignOut, h, rep, err)
}

// Dispatch runs the operation matching mode.
func (d *Dispatcher) Dispatch(ctx context.Context, mode form.Mode, c form.Credentials, h http.Header) Outcome {
	if mode == form.SignUp {
		return d.SignUp(ctx, c, h)
	}
	return d.SignIn(ctx, c, h)
}

// finish normalises, counts, logs, and audits one result.
func (d *Dispatcher) finish(ctx context.Context, n Name, h http.Header, rep *authapi.Reply, err error) Outcome {
	log := logger.FromContext(ctx)

	var out Outcome
	var label string
	var rej *authapi.Rejection
	switch {
	case err == nil:
		if rep == nil {
			rep = &authapi.Reply{}
		}
		out, label = Outcome{Reply: rep}, "success"
	case errors.As(err, &rej):
		out = Failed(&Error{Kind: KindAuth, Message: rej.Message, Err: err})
		label = "rejected"
		log.Infow("auth action rejected", "action", n, "status", rej.Status, "code", rej.Code)
	default:
		out = Failed(&Error{Kind: KindUnexpected, Message: unexpectedMessages[n], Err: err})
		label = "error"
		log.Errorw("auth action failed", "action", n, "err", err)
	}

	metrics.AuthActions.WithLabelValues(string(n), label).Inc()
	d.audit(ctx, n, label, h)
	return out
}

// audit writes one event when a Recorder is configured.
func (d *Dispatcher) audit(ctx context.Context, n Name, outcome string, h http.Header) {
	if d.rec == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	c := d.clients.Describe(h)
	ev := audit.Event{
		Action:    string(n),
		Outcome:   outcome,
		RemoteIP:  c.IP,
		RequestID: chimw.GetReqID(ctx),
		Browser:   c.Browser,
		OS:        c.OS,
		Device:    c.Device,
		IsBot:     c.IsBot,
		Country:   c.Country,
	}
	if err := d.rec.Record(actx, ev); err != nil {
		logger.FromContext(ctx).Warnw("audit record failed", "action", n, "err", err)
	}
}
