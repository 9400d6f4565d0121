// components/auth/handlers.go
//
// Request handlers.  Each POST turns the request into one formstate
// submission and then executes the resulting Intent: a 303 for Navigate,
// the confirmation view for Confirm, or the form again with its errors.

package auth

import (
	"errors"
	"net/http"

	"github.com/yanizio/gatehouse/internal/action"
	"github.com/yanizio/gatehouse/internal/authapi"
	"github.com/yanizio/gatehouse/internal/form"
	"github.com/yanizio/gatehouse/internal/formstate"
	"github.com/yanizio/gatehouse/internal/guard"
	"github.com/yanizio/gatehouse/internal/logger"
	"github.com/yanizio/gatehouse/internal/session"
)

// ConfirmMessage is shown in place of the sign-up form after success.
const ConfirmMessage = "Account created successfully!"

// PendingMessage is shown when a form is posted again while its first
// submission is still with the auth service.
const PendingMessage = "A submission is already in progress. Please wait a moment and try again."

// maxFormBytes caps a posted form.
const maxFormBytes = 64 << 10

/*──────────────────────────── forms ────────────────────────────────────────*/

func (c *Component) formGET(mode form.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := formView{
			Mode:     mode,
			Instance: form.NewInstanceID(),
			Callback: r.URL.Query().Get(form.CallbackField),
		}
		c.renderForm(w, r, http.StatusOK, v)
	}
}

func (c *Component) formPOST(mode form.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		raw := r.PostForm

		id := raw.Get(form.InstanceField)
		f := c.forms.Form(mode, id)
		if id == "" {
			id = form.NewInstanceID()
		}
		v := formView{
			Mode:     mode,
			Instance: id,
			Callback: raw.Get(form.CallbackField),
			Prefill: map[form.Field]string{
				form.FieldName:  raw.Get(string(form.FieldName)),
				form.FieldEmail: raw.Get(string(form.FieldEmail)),
			},
		}

		sub, err := f.Submit(r.Context(), raw, authapi.RequestHeaders(r))
		if errors.Is(err, formstate.ErrPending) {
			if wantsJSON(r) {
				v.State = sub.State
				writeJSON(w, r, http.StatusConflict, stateOf(v))
				return
			}
			// The page stays usable; the first request may already be gone.
			v.Banner = PendingMessage
			c.renderForm(w, r, http.StatusConflict, v)
			return
		}
		v.State = sub.State

		authapi.RelayCookies(w, sub.Reply)

		switch sub.Intent.Kind {
		case formstate.Navigate:
			v.Navigate = sub.Intent.URL
			if wantsJSON(r) {
				writeJSON(w, r, http.StatusOK, stateOf(v))
				return
			}
			http.Redirect(w, r, sub.Intent.URL, http.StatusSeeOther)
		case formstate.Confirm:
			v.Confirm = ConfirmMessage
			c.respond(w, r, http.StatusOK, v)
		default:
			c.respond(w, r, statusFor(sub.State.Error), v)
		}
	}
}

// respond writes v as JSON or HTML depending on the Accept header.
func (c *Component) respond(w http.ResponseWriter, r *http.Request, status int, v formView) {
	if wantsJSON(r) {
		writeJSON(w, r, status, stateOf(v))
		return
	}
	c.renderForm(w, r, status, v)
}

/*──────────────────────────── home / sign-out ──────────────────────────────*/

func (c *Component) handleHome(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		// Only reachable when the guard is not mounted in front.
		http.Redirect(w, r, guard.SignIn, http.StatusSeeOther)
		return
	}
	c.renderHome(w, r, http.StatusOK, homeView{User: userOf(s)})
}

func (c *Component) handleSignOut(w http.ResponseWriter, r *http.Request) {
	h := authapi.RequestHeaders(r)
	out := c.actions.SignOut(r.Context(), h)
	authapi.RelayCookies(w, out.Reply)

	if out.OK() {
		if wantsJSON(r) {
			writeJSON(w, r, http.StatusOK, stateJSON{State: formstate.Succeeded.String(), Navigate: guard.SignIn})
			return
		}
		http.Redirect(w, r, guard.SignIn, http.StatusSeeOther)
		return
	}

	status := statusFor(out.Err)
	if wantsJSON(r) {
		writeJSON(w, r, status, stateJSON{State: formstate.Failed.String(), Error: errorOf(out.Err)})
		return
	}

	// Home again with a banner; the user may still be signed in.
	hv := homeView{Banner: out.Err.Message}
	if s, err := c.sessions.GetSession(r.Context(), h); err != nil {
		logger.FromContext(r.Context()).Warnw("session lookup after sign-out failed", "err", err)
	} else if s != nil {
		hv.User = userOf(s)
	}
	c.renderHome(w, r, status, hv)
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// statusFor maps a surfaced error to an HTTP status.  Collaborator
// failures are a bad gateway; everything the user can fix is 422.
func statusFor(e *action.Error) int {
	switch {
	case e == nil:
		return http.StatusOK
	case e.Kind == action.KindUnexpected:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

func userOf(s *session.Session) *session.User {
	if s == nil {
		return nil
	}
	u := s.User
	return &u
}
