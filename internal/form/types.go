// internal/form/types.go
//
// Gatehouse – Forms subsystem: core value types.
//
// Context
//   Both auth forms draw from the same closed field set {name, email,
//   password}.  Validation turns raw posted strings into a Result that
//   either carries trusted Credentials or field-keyed, ordered messages.
//   Everything here is a plain value; nothing is persisted.
//
//------------------------------------------------------------------------------

package form

import "github.com/google/uuid"

// Mode selects which form is being validated or rendered.
type Mode string

const (
	SignIn Mode = "sign-in"
	SignUp Mode = "sign-up"
)

// ParseMode accepts the two known form IDs.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case SignIn, SignUp:
		return Mode(s), true
	}
	return "", false
}

// Field is one member of the closed field-name set.
type Field string

const (
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
)

// Known reports whether f is in the closed set.
func (f Field) Known() bool {
	switch f {
	case FieldName, FieldEmail, FieldPassword:
		return true
	}
	return false
}

// trimmed reports whether surrounding whitespace is stripped before
// validation.  Passwords are taken verbatim.
func (f Field) trimmed() bool { return f != FieldPassword }

// FieldErrors maps a field to every failing rule message, in rule order.
type FieldErrors map[Field][]string

// First returns the message shown to the user for f, or "".
func (fe FieldErrors) First(f Field) string {
	if msgs := fe[f]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// add appends msg under f, allocating lazily.
func (fe FieldErrors) add(f Field, msg string) { fe[f] = append(fe[f], msg) }

// Credentials carries validated input.  Name is empty for sign-in.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// Result is the outcome of Schema.Validate.
type Result struct {
	Credentials Credentials
	Errors      FieldErrors
}

// Valid reports whether no field failed.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Hidden input names shared by the renderer and the handlers.
const (
	InstanceField = "form_instance"
	CallbackField = "callbackUrl"
)

// NewInstanceID returns a fresh identifier for one rendered form.
func NewInstanceID() string { return uuid.NewString() }
