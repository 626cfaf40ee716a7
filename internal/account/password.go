package account

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes      = 16
	hashIterations = 100000
	hashKeyLen     = 64
)

// HashPassword derives a PBKDF2-SHA512 hash with a fresh random salt and
// returns it encoded as "<salt-hex>:<hash-hex>".
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("account: salt generation: %w", err)
	}
	hash := pbkdf2.Key([]byte(password), salt, hashIterations, hashKeyLen, sha512.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(hash), nil
}

// VerifyPassword reports whether password matches a stored "<salt>:<hash>"
// value. Comparison is constant-time.
func VerifyPassword(password, stored string) bool {
	parts := strings.SplitN(stored, ":", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, hashIterations, hashKeyLen, sha512.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
