// internal/action/errors.go
//
// Error taxonomy shared by the dispatcher and the form state machine.
//
//   • KindValidation – field-attributed, the user corrects input.
//   • KindAuth       – the auth service said no; its message is shown as a
//                      banner without field attribution.
//   • KindUnexpected – anything else, reduced to a generic message.  The
//                      cause is kept for logs only.

package action

import (
	"fmt"

	"github.com/yanizio/gatehouse/internal/form"
)

// Kind classifies an Error.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindUnexpected:
		return "unexpected"
	}
	return "unknown"
}

// ValidationMessage is the banner shown above field errors.
const ValidationMessage = "Please fix the errors below"

// Error is the surfaced failure of one action.  Message is always safe to
// show; Err is the cause, for logging.
type Error struct {
	Kind    Kind
	Message string
	Fields  form.FieldErrors // set only for KindValidation
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds the error for a form that failed validation.
func Validation(fields form.FieldErrors) *Error {
	return &Error{Kind: KindValidation, Message: ValidationMessage, Fields: fields}
}
