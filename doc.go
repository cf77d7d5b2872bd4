// Package authflow drives a client-side authentication onboarding flow: an
// optional invitation gate, an email step, a code verification step, and a
// terminal success step, with a progress indicator that follows the flow.
//
// A [Flow] is built once per page session through [Builder.Build]. Its methods
// are safe to call from multiple goroutines; network calls happen outside the
// flow's lock so a slow server never blocks readers such as [Flow.CurrentStep].
//
// # Architecture boundaries
//
// authflow is the public surface. Step bookkeeping lives in step and progress,
// the invitation gate in invitation, and presentation reconciliation in
// syncstate. HTTP collaborators live in remote and are only constructed when the
// caller does not inject its own.
//
// # What this package must NOT do
//
//   - Log or emit invitation codes, verification codes, or server rejection text.
//   - Mutate the authentication snapshot other than through the provider's
//     Login and Logout.
//   - Import any package that imports authflow.
package authflow
