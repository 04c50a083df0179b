package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const opaqueBytes = 32 // 256 bits of entropy

// NewOpaque returns a cryptographically random, URL-safe token. The raw value
// is handed to the client exactly once; only its hash is persisted.
func NewOpaque() (string, error) {
	buf := make([]byte, opaqueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash returns the hex-encoded SHA-256 digest of a raw opaque token. Lookup
// by digest gives constant-time comparison semantics for free: the digest of
// an attacker-supplied token leaks nothing about stored values.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
