// components/auth/auth.go
//
// Gatehouse authentication component – sign-in, sign-up, home, sign-out.
//
// Context
// -------
// The component owns the browser-facing pages.  Everything behind them is
// injected: the form schema, the tracker of live form instances, the
// sign-out dispatcher, and the session lookup used when a failed sign-out
// re-renders the home page.  Route protection is not done here;
// guard.Middleware runs in front of the router.
//
// Routes
// ------
//
//	GET  /sign-in    POST /sign-in
//	GET  /sign-up    POST /sign-up
//	GET  /           POST /sign-out
//	GET  /static/*
//
//------------------------------------------------------------------------------

package auth

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/gatehouse/internal/action"
	"github.com/yanizio/gatehouse/internal/form"
	"github.com/yanizio/gatehouse/internal/formstate"
	"github.com/yanizio/gatehouse/internal/guard"
	"github.com/yanizio/gatehouse/internal/session"
	"github.com/yanizio/gatehouse/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// SignOuter ends a session.  *action.Dispatcher satisfies it.
type SignOuter interface {
	SignOut(ctx context.Context, h http.Header) action.Outcome
}

// Deps are the collaborators New wires together.  All are required.
type Deps struct {
	Schema   *form.Schema
	Forms    *formstate.Tracker
	Actions  SignOuter
	Sessions session.Lookup
}

// Component encapsulates the auth pages.
type Component struct {
	schema   *form.Schema
	forms    *formstate.Tracker
	actions  SignOuter
	sessions session.Lookup
	views    *view.Engine
	static   http.Handler
}

// New parses the embedded templates and returns a ready Component.
func New(d Deps) (*Component, error) {
	if d.Schema == nil || d.Forms == nil || d.Actions == nil || d.Sessions == nil {
		return nil, errors.New("auth: schema, forms, actions, and sessions are required")
	}
	views, err := view.New(templateFS, nil, "templates/*.html")
	if err != nil {
		return nil, err
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	return &Component{
		schema:   d.Schema,
		forms:    d.Forms,
		actions:  d.Actions,
		sessions: d.Sessions,
		views:    views,
		static:   http.StripPrefix("/static/", http.FileServer(http.FS(sub))),
	}, nil
}

// Routes builds and returns the router mounted at “/”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get(guard.SignIn, c.formGET(form.SignIn))
	r.Post(guard.SignIn, c.formPOST(form.SignIn))
	r.Get(guard.SignUp, c.formGET(form.SignUp))
	r.Post(guard.SignUp, c.formPOST(form.SignUp))
	r.Get(guard.Home, c.handleHome)
	r.Post(SignOutPath, c.handleSignOut)
	r.Handle("/static/*", c.static)
	return r
}

// SignOutPath receives the home page's sign-out form.
const SignOutPath = "/sign-out"
