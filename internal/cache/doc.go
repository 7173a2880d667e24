// Package cache provides a file-based cache for review results.
//
// Entries are keyed by a SHA-256 hash of the provider name, model, review
// target, custom prompt, and redacted diff. Each entry stores the serialized
// result with a creation timestamp; entries older than the configured TTL
// are treated as misses and removed on read.
//
// The default cache directory is $XDG_CACHE_HOME/commitcraft (or the
// OS-appropriate equivalent).
package cache
