// Package password hashes and verifies account passwords with argon2id.
// Hashes are stored in PHC string format so parameters travel with the
// hash; Verify recomputes with the stored parameters and compares in
// constant time, and NeedsUpgrade reports when a stored hash was produced
// with weaker parameters than currently configured.
package password
