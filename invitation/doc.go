// Package invitation gates the onboarding flow behind a remotely validated
// invitation code.
//
// # State machine
//
//	Uninitialized --Init--> Checking --enabled--> Gated --valid code--> Verified
//	                                 \--disabled or check failed--> Bypassed
//
// The "is an invitation required" check fails open: any transport or decoding
// failure is treated as "not required".
//
// # Validation ordering
//
// Each submission is tagged with a monotonically increasing sequence number.
// A response is applied only if no newer submission has been issued since; older
// responses are discarded and reported as [ErrStaleResponse].
//
// # What this package must NOT do
//
//   - Log submitted codes or server-provided rejection reasons.
//   - Block onboarding when the required-check is unavailable.
//   - Perform the HTTP calls itself; those belong to the [Client] implementation.
package invitation
