// Package session persists the revocable refresh registry: at most one live
// record per account, keyed by account id in Redis.
//
// A record binds the account to its current opaque refresh secret and the
// device fingerprint observed when the record was created. Logins while the
// record stays valid reuse it unchanged, so a single refresh secret is
// shared across every device the account signs in from; revoking the record
// invalidates all of them at once.
//
// Records are stored as a versioned binary blob (see encoder.go). Creation
// uses SETNX so that two concurrent first logins for the same account
// resolve to a single record, with the losing writer adopting the winner's.
package session
