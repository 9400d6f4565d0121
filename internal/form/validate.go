// internal/form/validate.go
//
// Gatehouse – Forms subsystem: server-side validation.
//
// Context
//   When the browser posts an auth form, Validate turns the raw url.Values
//   into a Result.  Fields come from the Def for the requested Mode, so only
//   the closed field set is ever read.  Missing keys are empty strings.
//   Name and email are trimmed, passwords are taken verbatim.
//
//   Every rule of every field runs, in declaration order, and each failure
//   is appended to that field’s message list.  The renderer surfaces the
//   first one; JSON clients see them all.  Malformed input is an Invalid
//   Result, never a panic: rule tags were already proven at load time.
//
//------------------------------------------------------------------------------

package form

import (
	"net/url"
	"strings"
)

// UnknownFormMessage is reported under the email field when Validate is
// asked for a Mode the schema does not define.
const UnknownFormMessage = "unknown form"

// Validate checks raw against the definition for m.
func (s *Schema) Validate(m Mode, raw url.Values) Result {
	d, ok := s.defs[m]
	if !ok {
		return Result{Errors: FieldErrors{FieldEmail: {UnknownFormMessage}}}
	}

	errs := make(FieldErrors)
	var creds Credentials

	for i := range d.Fields {
		f := &d.Fields[i]
		val := raw.Get(string(f.Name))
		if f.Name.trimmed() {
			val = strings.TrimSpace(val)
		}

		for _, r := range f.Rules {
			if err := s.v.Var(val, r.Tag); err != nil {
				errs.add(f.Name, r.Message)
			}
		}

		switch f.Name {
		case FieldName:
			creds.Name = val
		case FieldEmail:
			creds.Email = val
		case FieldPassword:
			creds.Password = val
		}
	}

	if len(errs) == 0 {
		return Result{Credentials: creds}
	}
	return Result{Credentials: creds, Errors: errs}
}
