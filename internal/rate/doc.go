// Package rate provides a Redis fixed-window counter used by the development
// backend to throttle invitation and verification attempts.
//
// # Window semantics
//
// INCR + EXPIRE on the first hit of a window. Keys are
// <prefix>:<scope>:<subject>.
package rate
