// Package token provides the two token primitives used across the credential
// core: compact HMAC-signed payloads that can be validated without a store
// round-trip, and high-entropy opaque values for server-tracked credentials.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
)

const signatureLen = 8 // truncated HMAC-SHA256, 64 bits

// Generate encodes payload as JSON and appends a truncated HMAC-SHA256
// signature: base64url(payload) + "." + base64url(sig).
func Generate[T any](payload T, secret string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	sig := mac.Sum(nil)[:signatureLen]

	return base64.RawURLEncoding.EncodeToString(data) + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Parse verifies the signature in constant time and decodes the payload.
func Parse[T any](tok, secret string) (T, error) {
	var payload T

	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return payload, ErrMalformed
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return payload, ErrMalformed
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return payload, ErrMalformed
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	want := mac.Sum(nil)[:signatureLen]

	if subtle.ConstantTimeCompare(sig, want) != 1 {
		return payload, ErrSignatureMismatch
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, ErrMalformed
	}

	return payload, nil
}
