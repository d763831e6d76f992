package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes         = 32
	sessionTokenBytes = 32
	keyLength         = 32
)

// CredentialVault derives and verifies password hashes. PBKDF2-HMAC-SHA256
// with a per-user random salt; the iteration count is fixed for the
// deployment and never below internal.MinKDFIterations.
type CredentialVault struct {
	iterations int
}

func NewCredentialVault(iterations int) *CredentialVault {
	return &CredentialVault{iterations: iterations}
}

// Hash derives a hash for the password. When salt is empty a fresh 32-byte
// random salt is generated. Both hash and salt are hex-encoded.
func (v *CredentialVault) Hash(password, salt string) (string, string, error) {
	if salt == "" {
		raw := make([]byte, saltBytes)
		if _, err := rand.Read(raw); err != nil {
			return "", "", fmt.Errorf("generate salt: %w", err)
		}
		salt = hex.EncodeToString(raw)
	}

	derived := pbkdf2.Key([]byte(password), []byte(salt), v.iterations, keyLength, sha256.New)
	return hex.EncodeToString(derived), salt, nil
}

// Verify recomputes the hash and compares in constant time. It reports only
// success or failure, never which part of the comparison diverged.
func (v *CredentialVault) Verify(password, hash, salt string) bool {
	derived := pbkdf2.Key([]byte(password), []byte(salt), v.iterations, keyLength, sha256.New)

	expected, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(derived, expected) == 1
}

// NewSessionToken returns a 256-bit cryptographically random, URL-safe token.
func NewSessionToken() (string, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
