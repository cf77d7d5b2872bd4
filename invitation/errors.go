package invitation

import "errors"

var (
	// ErrNotGated is returned by Submit when the manager is not waiting for a code.
	ErrNotGated = errors.New("invitation not gated")
	// ErrEmptyCode is returned when the trimmed code is empty. No network call is made.
	ErrEmptyCode = errors.New("empty invitation code")
	// ErrCodeRejected is returned when the server did not accept the code.
	ErrCodeRejected = errors.New("invitation code rejected")
	// ErrNetwork is returned when the validation call could not reach the server.
	ErrNetwork = errors.New("invitation network error")
	// ErrStaleResponse is returned when a newer submission superseded this one.
	ErrStaleResponse = errors.New("stale invitation response")
	// ErrTransport is wrapped by Client implementations for non-2xx statuses and
	// malformed bodies. Such failures surface as rejections with a generic message.
	ErrTransport = errors.New("invitation transport failure")
)

// User-facing messages.
const (
	MessageEmptyCode = "Please enter your invitation code."
	MessageInvalid   = "Invalid invitation code. Please try again."
	MessageNetwork   = "Network error. Please check your connection and try again."
)
