package crypto

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/and161185/gk-vault/internal/errs"
)

// NonceLen is the per-message nonce length (96 bits).
const NonceLen = chacha20poly1305.NonceSize

// Cipher seals and opens byte strings with ChaCha20-Poly1305 under one key.
// Output layout is nonce(12) || ciphertext || tag(16), associated data empty.
//
// Nonces are random. With 96-bit random nonces the collision probability
// stays negligible while a key seals far fewer than 2^32 messages; a local
// vault stays many orders of magnitude below that.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher constructs a Cipher from a KeyLen key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("cipher key: want %d bytes, got %d", KeyLen, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext with a fresh random nonce.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce, err := RandBytes(NonceLen)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+c.aead.Overhead())
	out = append(out, nonce...)
	return c.aead.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. Every failure is errs.ErrCrypto.
func (c *Cipher) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < NonceLen {
		return nil, errs.ErrCrypto
	}
	pt, err := c.aead.Open(nil, blob[:NonceLen], blob[NonceLen:], nil)
	if err != nil {
		return nil, errs.ErrCrypto
	}
	return pt, nil
}

// EncryptString seals a UTF-8 string.
func (c *Cipher) EncryptString(s string) ([]byte, error) { return c.Encrypt([]byte(s)) }

// DecryptString opens a blob into a string.
func (c *Cipher) DecryptString(blob []byte) (string, error) {
	pt, err := c.Decrypt(blob)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
