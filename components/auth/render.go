// components/auth/render.go
//
// View models and their two encodings: HTML through the view engine, and
// a small JSON state document for clients that send
// `Accept: application/json`.

package auth

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/yanizio/gatehouse/internal/action"
	"github.com/yanizio/gatehouse/internal/form"
	"github.com/yanizio/gatehouse/internal/formstate"
	"github.com/yanizio/gatehouse/internal/guard"
	"github.com/yanizio/gatehouse/internal/head"
	"github.com/yanizio/gatehouse/internal/logger"
	"github.com/yanizio/gatehouse/internal/session"
)

const (
	stylesheet = `<link rel="stylesheet" href="/static/gatehouse.css">`
	formScript = `<script src="/static/form.js" defer></script>`
)

// formView is the handler-side description of one form response.
type formView struct {
	Mode     form.Mode
	Instance string
	Callback string
	Prefill  map[form.Field]string
	State    formstate.State
	Navigate string
	Confirm  string
	Banner   string
}

type homeView struct {
	User   *session.User
	Banner string
}

// altLink points from one form to the other.
type altLink struct {
	Text, Label, URL string
}

// formPage is what templates/auth.html receives.
type formPage struct {
	Head    *head.Builder
	Def     *form.Def
	Action  string
	Fields  template.HTML
	Banner  string
	Submit  string
	Pending bool
	Confirm string
	Alt     altLink
}

// homePage is what templates/home.html receives.
type homePage struct {
	Head    *head.Builder
	User    *session.User
	Banner  string
	SignOut string
}

/*──────────────────────────── HTML ─────────────────────────────────────────*/

func (c *Component) renderForm(w http.ResponseWriter, r *http.Request, status int, v formView) {
	def, ok := c.schema.Def(v.Mode)
	if !ok {
		http.NotFound(w, r)
		return
	}

	pending := v.State.Phase == formstate.Pending
	opts := form.RenderOptions{
		Prefill:  v.Prefill,
		Disabled: pending || v.Confirm != "",
		Hidden:   map[string]string{form.InstanceField: v.Instance},
	}
	if v.Callback != "" {
		opts.Hidden[form.CallbackField] = v.Callback
	}

	p := formPage{
		Head:    newHead(def.Title),
		Def:     def,
		Action:  "/" + string(v.Mode),
		Submit:  def.Submit,
		Pending: pending,
		Banner:  v.Banner,
		Confirm: v.Confirm,
		Alt:     alternate(v.Mode, v.Callback),
	}
	if pending && def.Pending != "" {
		p.Submit = def.Pending
	}
	if e := v.State.Error; e != nil {
		p.Banner = e.Message
		opts.Errors = e.Fields
	}
	p.Fields = form.RenderFields(def, opts)

	c.render(w, r, status, "auth", p)
}

func (c *Component) renderHome(w http.ResponseWriter, r *http.Request, status int, v homeView) {
	p := homePage{
		Head:    newHead("Home"),
		User:    v.User,
		Banner:  v.Banner,
		SignOut: SignOutPath,
	}
	c.render(w, r, status, "home", p)
}

func (c *Component) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := c.views.Render(w, status, name, data); err != nil {
		logger.FromContext(r.Context()).Errorw("render failed", "template", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func newHead(title string) *head.Builder {
	h := head.New()
	h.SetTitle(title + " · Gatehouse")
	h.Link(stylesheet)
	h.Script(formScript)
	return h
}

func alternate(mode form.Mode, callback string) altLink {
	l := altLink{Text: "Don't have an account?", Label: "Sign up", URL: guard.SignUp}
	if mode == form.SignUp {
		l = altLink{Text: "Already have an account?", Label: "Sign in", URL: guard.SignIn}
	}
	if callback != "" {
		l.URL += "?" + url.Values{form.CallbackField: {callback}}.Encode()
	}
	return l
}

/*──────────────────────────── JSON ─────────────────────────────────────────*/

type stateJSON struct {
	State    string     `json:"state"`
	Error    *errorJSON `json:"error,omitempty"`
	Navigate string     `json:"navigate,omitempty"`
	Confirm  string     `json:"confirm,omitempty"`
	Instance string     `json:"form_instance,omitempty"`
}

type errorJSON struct {
	Kind    string           `json:"kind"`
	Message string           `json:"message"`
	Fields  form.FieldErrors `json:"fields,omitempty"`
}

func stateOf(v formView) stateJSON {
	return stateJSON{
		State:    v.State.Phase.String(),
		Error:    errorOf(v.State.Error),
		Navigate: v.Navigate,
		Confirm:  v.Confirm,
		Instance: v.Instance,
	}
}

func errorOf(e *action.Error) *errorJSON {
	if e == nil {
		return nil
	}
	return &errorJSON{Kind: e.Kind.String(), Message: e.Message, Fields: e.Fields}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warnw("json encode failed", "err", err)
	}
}
