package authflow

import (
	"errors"

	"github.com/MrEthical07/authflow/authstate"
)

var (
	// ErrNotReady is returned by submissions made before Start.
	ErrNotReady = errors.New("flow not started")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("flow closed")
	// ErrWrongStep is returned when an operation does not apply to the current step.
	ErrWrongStep = errors.New("operation not valid at the current step")
	// ErrEmptyCode is returned when a submitted code is blank. No network call is made.
	ErrEmptyCode = errors.New("empty code")
	// ErrInvalidEmail is returned for an address that fails local validation.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvitationRequired is returned by SubmitEmail while the invitation gate is closed.
	ErrInvitationRequired = errors.New("invitation required")
	// ErrCodeRejected is returned when the server refuses an invitation or verification code.
	ErrCodeRejected = errors.New("code rejected")
	// ErrRejected is returned when the server refuses any other request.
	ErrRejected = authstate.ErrRejected
	// ErrNetwork is returned when the server could not be reached.
	ErrNetwork = errors.New("network error")
	// ErrLoginFailed is returned when the auth provider refuses the verified identity.
	ErrLoginFailed = errors.New("login failed")
	// ErrStaleResponse is returned when a newer invitation submission superseded this one.
	ErrStaleResponse = errors.New("stale response")
)

// User-facing messages shown in the flow's error element.
const (
	MessageInvitationRequired = "Please enter your invitation code first."
	MessageInvalidEmail       = "Please enter a valid email address."
	MessageEmptyCode          = "Please enter the verification code."
	MessageCodeRejected       = "Invalid verification code. Please try again."
	MessageSendFailed         = "We could not send a code to that address. Please try again."
	MessageNetwork            = "Network error. Please check your connection and try again."
	MessageLoginFailed        = "Login failed. Please try again."
)
