// Package token implements the stateless signer for both credential kinds:
// the short-lived access credential carrying account claims and the
// longer-lived refresh credential that additionally wraps the session's
// refresh secret.
//
// Tokens are HMAC-SHA256 JWTs signed with a single process-wide secret.
// Signing and verification have no side effects; verification rejects
// tampered and expired tokens alike, and callers upstream are expected to
// collapse both into one authentication failure.
package token
