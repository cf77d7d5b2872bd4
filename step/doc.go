// Package step defines the onboarding flow steps, their progress configuration,
// and the single ordering used by every component that compares steps.
//
// # Ordering
//
// Steps are ordered by rank. The built-in table is:
//
//	invitation  rank 1
//	email       rank 1
//	verify      rank 2
//	success     rank 3
//
// [Registry.Compare] is the only place rank comparisons happen. Progress rendering
// and flow orchestration both go through it.
//
// # What this package must NOT do
//
//   - Render anything or hold presentation handles.
//   - Re-render when a step config is added; callers decide when to redraw.
package step
