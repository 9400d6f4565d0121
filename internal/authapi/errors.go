package authapi

import "fmt"

// TooManyRequestsMessage is used when a 429 reply carries no message.
const TooManyRequestsMessage = "Too many requests. Please try again later."

// Rejection is a structured 4xx answer from the authentication service:
// wrong password, duplicate account, rate limited, and so on.  Message is
// safe to show to the user.
type Rejection struct {
	Status  int
	Code    string
	Message string
}

func (r *Rejection) Error() string {
	if r.Code != "" {
		return fmt.Sprintf("auth service rejected (%d %s): %s", r.Status, r.Code, r.Message)
	}
	return fmt.Sprintf("auth service rejected (%d): %s", r.Status, r.Message)
}
