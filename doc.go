// Package authcore provides the credential core of an e-commerce backend:
// HMAC-signed JWT access and refresh credentials, a Redis-backed session
// store, argon2id password hashing, and one-time token flows for email
// verification and password reset.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (AuthResult, Account, MetricsSnapshot, etc.). Flow
// orchestration and one-time token primitives live under internal/ and are
// never exported. Persistence of accounts stays behind [AccountProvider];
// the package ships no database layer of its own.
//
// # What this package must NOT do
//
//   - Expose the Redis client, session encoding, or claim layouts in its
//     public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Distinguish authentication failure causes in returned errors. Every
//     failed [Engine.Authenticate] surfaces [ErrUnauthenticated]; the cause
//     reaches metrics and audit metadata only.
//
// # Hot path
//
// Authenticate with a valid access credential completes without a Redis
// round-trip. Only the refresh fallback, login, and account operations touch
// Redis, at most one logical operation per call.
package authcore
