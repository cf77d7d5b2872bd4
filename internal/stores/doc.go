// Package stores holds the Redis-backed state of the development backend:
// invitation codes with a remaining-use count, and pending email challenges
// with an attempt counter.
//
// Codes are never stored in clear; keys and compared values are SHA-256
// digests. Every read-modify-write runs as a single Lua script.
package stores
