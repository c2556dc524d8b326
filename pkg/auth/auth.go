// Package auth provides the inbound shared-secret check for the chatbridge
// gateway. The secret is validated against bearer tokens using SHA-256
// hashing and constant-time comparison; plaintext secrets are not stored.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// SharedSecret validates bearer tokens against a single configured secret.
// A nil SharedSecret accepts every request.
type SharedSecret struct {
	hash [32]byte
}

// NewSharedSecret creates a validator for the given secret. An empty secret
// disables authentication and returns nil.
func NewSharedSecret(secret string) *SharedSecret {
	if secret == "" {
		return nil
	}
	return &SharedSecret{hash: sha256.Sum256([]byte(secret))}
}

// Check reports whether the given token matches the configured secret.
func (s *SharedSecret) Check(token string) bool {
	if s == nil {
		return true
	}
	tokenHash := sha256.Sum256([]byte(token))
	return subtle.ConstantTimeCompare(tokenHash[:], s.hash[:]) == 1
}

// BearerToken extracts the bearer token from a request's Authorization
// header. Returns empty string if the header is absent or not a Bearer
// scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
