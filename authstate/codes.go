package authstate

import (
	"context"
	"errors"
)

// ErrRejected marks a request the server understood and refused.
var ErrRejected = errors.New("request rejected")

// CodeInvitationRequired is the rejection code for a request whose invitation
// code is missing, unknown, or spent.
const CodeInvitationRequired = "invitation_required"

// RejectionError carries the server's machine-readable code and
// human-readable message for a refused request.
type RejectionError struct {
	Code    string
	Message string
}

func (e *RejectionError) Error() string {
	if e.Code == "" {
		return ErrRejected.Error()
	}
	return ErrRejected.Error() + ": " + e.Code
}

func (e *RejectionError) Unwrap() error { return ErrRejected }

// CodeSender delivers and checks the one-time email verification code.
//
// Errors wrapping [ErrRejected] are refusals; any other error is a transport
// failure. VerifyCode returns the identifier to pass to [Provider.Login]; an
// empty identifier means the email itself.
type CodeSender interface {
	SendCode(ctx context.Context, email, invitationCode string) error
	VerifyCode(ctx context.Context, email, code string) (identifier string, err error)
}
