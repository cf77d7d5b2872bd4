// Package remote implements the flow's collaborators over HTTP/JSON.
//
//   - [InvitationClient]: GET the invitation requirement, POST a code for validation.
//   - [CodeClient]: POST an email to receive a code, POST the code to verify it.
//   - [AuthManager]: an [authstate.Provider] that holds the session token
//     returned by verification and derives the displayed email from it.
//
// Non-2xx responses and malformed bodies are reported as protocol errors
// (wrapping [invitation.ErrTransport] on the invitation endpoints, or an
// [authstate.RejectionError] when a 4xx body explains the refusal). Connection
// failures are returned as they come from net/http.
package remote
