package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const oneTimeTokenSize = 32

// NewOneTimeToken returns an opaque random token for the verification and
// reset flows. base64url, no padding, compact.
func NewOneTimeToken() (string, error) {
	var raw [oneTimeTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a one-time token.
// Reset tokens are persisted only in this form.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
