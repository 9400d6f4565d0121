// internal/form/renderer.go
//
// Gatehouse – Forms subsystem: HTML renderer.
//
// Context
//   Given a parsed Def this file converts the field list into safe,
//   accessible HTML markup for the page templates to embed.  It applies the
//   HTML5 required attribute where a field has a "required" rule, honours
//   prefill data (never for passwords), writes the first error per field,
//   disables every input while the form is pending, and appends hidden
//   inputs such as the form instance ID and callback URL.
//
// Workflow
//   •  RenderFields walks Def.Fields in order and writes each via
//      writeField.
//   •  Hidden inputs are written last, sorted by name so output is stable.
//   •  The caller receives template.HTML so the surrounding template does
//      not double-escape the markup.
//
// Style
//   Output HTML is deliberately plain, no framework classes, so the page
//   stylesheet can target element selectors or class hooks.  Each input
//   gets id="fld-{name}" and is wrapped in <div class="form-field">.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"html"
	"html/template"
	"sort"
)

// RenderOptions bundles optional parameters influencing HTML output.
type RenderOptions struct {
	// Prefill provides previously entered values keyed by field.
	Prefill map[Field]string
	// Errors marks fields invalid; only the first message per field shows.
	Errors FieldErrors
	// Disabled renders every input disabled (pending submission).
	Disabled bool
	// Hidden lists extra hidden inputs, e.g. form_instance.
	Hidden map[string]string
}

// RenderFields returns the markup for d’s fields plus hidden inputs.
func RenderFields(d *Def, opts RenderOptions) template.HTML {
	var buf bytes.Buffer
	// Form wrapper div to allow per-form CSS targeting.
	buf.WriteString(`<div class="gatehouse-form" data-form="` + html.EscapeString(string(d.ID)) + `">` + "\n")

	for i := range d.Fields {
		writeField(&buf, &d.Fields[i], opts)
	}

	keys := make([]string, 0, len(opts.Hidden))
	for k := range opts.Hidden {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteString(`<input type="hidden" name="` + html.EscapeString(k) +
			`" value="` + html.EscapeString(opts.Hidden[k]) + `">` + "\n")
	}

	buf.WriteString(`</div>`)
	return template.HTML(buf.String())
}

// writeField emits HTML for an individual field into buf.
func writeField(buf *bytes.Buffer, f *FieldDef, opts RenderOptions) {
	name := html.EscapeString(string(f.Name))
	msg := opts.Errors.First(f.Name)

	// Container
	buf.WriteString(`<div class="form-field">` + "\n")

	// Label first (for accessibility)
	buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")

	buf.WriteString(`<input id="fld-` + name + `" name="` + name + `" type="` + f.Type + `"`)
	if f.Placeholder != "" {
		buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
	}
	if f.Autocomplete != "" {
		buf.WriteString(` autocomplete="` + html.EscapeString(f.Autocomplete) + `"`)
	}
	if f.required() {
		buf.WriteString(` required`)
	}
	// password fields are not prefilled.
	if val := opts.Prefill[f.Name]; val != "" && f.Type != "password" {
		buf.WriteString(` value="` + html.EscapeString(val) + `"`)
	}
	if msg != "" {
		buf.WriteString(` aria-invalid="true" aria-describedby="err-` + name + `"`)
	}
	if opts.Disabled {
		buf.WriteString(` disabled`)
	}
	buf.WriteString(`>` + "\n")

	// Error slot, always present so the layout does not jump.
	buf.WriteString(`<span class="error" id="err-` + name + `" aria-live="polite">` + html.EscapeString(msg) + `</span>` + "\n")

	buf.WriteString(`</div>` + "\n")
}
