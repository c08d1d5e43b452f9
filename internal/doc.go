// Package internal holds shared helpers that must not become public API:
// one-time token generation and hashing used by the verification and
// password-reset flows.
package internal
