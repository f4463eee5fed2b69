package gateway

import "fmt"

// Platform API error codes the delivery path classifies distinctly.
const (
	codeCannotSendDM = 50007 // recipient blocks DMs from non-friends
	codeUnknownUser  = 10013 // recipient no longer exists
)

// APIError is a failed platform REST call.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform api error %d (code %d): %s", e.Status, e.Code, e.Message)
}

// IsDMBlocked reports whether the error means the recipient does not accept
// direct messages.
func IsDMBlocked(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Code == codeCannotSendDM
}

// IsUnknownUser reports whether the error means the recipient was not found
// on the platform.
func IsUnknownUser(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Code == codeUnknownUser
}
