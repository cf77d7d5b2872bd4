// Package transport builds the HTTP client shared by the remote collaborators.
//
// Requests carry an X-Request-Id header. When DNS caching is enabled, host
// lookups go through a refreshed in-process cache.
package transport
