// Package authstate defines the read-only authentication snapshot consumed by the
// onboarding flow and the state reconciler, together with the provider contract
// that owns it.
//
// # Architecture boundaries
//
// The provider is an external collaborator. The flow invokes Login and Logout;
// the reconciler only ever reads Snapshot. Neither mutates the snapshot directly.
//
// [Memory] is an in-process provider used by tests and by hosts that keep the
// authentication state locally.
//
// # What this package must NOT do
//
//   - Perform network I/O.
//   - Import any other package of this module.
package authstate
