// Package cryptoutil provides the secure token generation and hashing
// primitives shared by the session and SSO-session stores.
//
// SSO tokens are opaque, high-entropy random strings; refresh tokens are
// signed JWTs from the tokens package. Neither is ever stored. Only their
// SHA-256 hash is persisted, so a cache compromise cannot be used to forge
// a valid credential.
package cryptoutil

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateOpaqueToken returns a cryptographically random, URL-safe token
// with the given number of bytes of entropy (the SSO-session store asks
// for 32 bytes = 256 bits).
func GenerateOpaqueToken(entropyBytes int) (string, error) {
	buf := make([]byte, entropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(buf), nil
}

// HashToken returns the lowercase-hex SHA-256 digest of a plain token.
// Fast by design: refresh/SSO token validation happens on every request
// and must not carry bcrypt-class cost.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyToken reports whether a plain token hashes to the given digest.
func VerifyToken(plainToken, hash string) bool {
	return HashToken(plainToken) == hash
}
