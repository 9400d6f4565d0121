// internal/view/render.go
//
// Central view engine: one parsed template set, func-map injection, and
// buffered rendering.
//
// Public helpers
// --------------
//   - Render         – write rendered HTML with a status code.
//   - RenderToString – return template.HTML (fragments, tests).
//
// All templates matched by the patterns are parsed as one set so partials
// ({{ template "top" . }}) work out-of-the-box.  Gatehouse ships its
// templates embedded, so the set is parsed once at startup and shared.
//
//   • execName() chooses the best template to execute:
//       – If the set contains "<name>.html", we run that (file has no define).
//       – Else we fall back to "<name>" (root template defined via {{ define }}).
//   • Callers pass the logical name (e.g. "auth").
//
// Rendering goes to a buffer first.  A template error therefore never
// leaves a half-written page behind; the caller gets the error and the
// ResponseWriter is untouched.

package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
)

// Engine is safe for concurrent use after New returns.
type Engine struct {
	t *template.Template
}

// New parses every file in fsys matching patterns into one set.  Extra
// funcs are merged over the built-ins.
func New(fsys fs.FS, funcs template.FuncMap, patterns ...string) (*Engine, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.html"}
	}
	fm := template.FuncMap{"dict": dict}
	for k, v := range funcs {
		fm[k] = v
	}
	t, err := template.New("").Funcs(fm).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	return &Engine{t: t}, nil
}

// Render executes name into a buffer, then writes it with status.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := e.execute(&buf, name, data); err != nil {
		return err
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderToString executes name and returns the HTML.
func (e *Engine) RenderToString(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := e.execute(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (e *Engine) execute(buf *bytes.Buffer, name string, data any) error {
	exec := execName(e.t, name)
	if e.t.Lookup(exec) == nil {
		return fmt.Errorf("view: template %q not found", name)
	}
	return e.t.ExecuteTemplate(buf, exec, data)
}

//
// helpers
//

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined in code).
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
