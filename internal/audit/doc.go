// Package audit delivers onboarding flow events to a sink asynchronously.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines, no-op).
//   - [Dispatcher]: buffered relay that either drops or blocks when full.
//   - [Event]: one flow transition with its flow id and step.
//
// This package does not decide which events exist; the flow does. Events
// never carry invitation or verification codes.
package audit
