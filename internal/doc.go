// Package internal holds random code generation shared by the development
// server.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - devserver: HTTP endpoints the remote client talks to, backed by Redis
//   - metrics: lock-free counters and the validation latency histogram
//   - rate: Redis fixed-window rate limiting
//   - stores: Redis invitation and verification-code stores
//   - token: session token signing and parsing
//   - transport: HTTP client construction and the JSON request helper
package internal
