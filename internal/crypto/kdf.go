// Package crypto implements master-key derivation and field encryption for the vault.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// KDF parameters.
const (
	// Iterations is the PBKDF2 work factor. Fixed for the life of a vault file.
	Iterations = 100_000
	// KeyLen is the length of every derived key (256 bits).
	KeyLen = 32
	// SaltLen is the per-vault random salt length.
	SaltLen = 16
)

// Sub-key purposes. Each use of the master key gets its own HKDF output.
const (
	PurposeVerify = "gk-vault/v1/vault-verify"
	PurposeEntry  = "gk-vault/v1/entry-secret"
)

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := io.ReadFull(rand.Reader, b)
	return b, err
}

// DeriveKey derives a KeyLen root key from password and salt using PBKDF2-HMAC-SHA256.
func DeriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, KeyLen, sha256.New)
}

// SubKey derives an independent key for purpose from root via HKDF-SHA256.
func SubKey(root []byte, purpose string) ([]byte, error) {
	r := hkdf.New(sha256.New, root, nil, []byte(purpose))
	key := make([]byte, KeyLen)
	_, err := io.ReadFull(r, key)
	return key, err
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
