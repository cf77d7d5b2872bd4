// Package syncstate converges the signed-in/signed-out presentation to the
// authoritative authentication snapshot.
//
// # Reconciliation
//
// [Reconcile] is pure: it takes a snapshot and the current presentation and
// returns a [Plan]. [Manager.PerformSync] reads the page, reconciles, and applies
// the plan. A pass never suspends; passes are serialized by the manager's lock.
//
// # Scheduling
//
// New runs one pass immediately. If that pass did not converge, a fixed-interval
// poll runs until the manager is synced, the attempt ceiling is reached, the
// backstop timeout fires, or Close is called. Visibility and focus events each
// trigger one pass at any time, including after polling stopped. ForceSync
// resets the attempt state and starts over.
//
// Time is injected through [Scheduler] so tests advance it deterministically.
//
// # What this package must NOT do
//
//   - Mutate the authentication snapshot.
//   - Treat a missing provider or element as an error; both mean "not ready yet".
package syncstate
