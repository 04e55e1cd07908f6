// Package vault bootstraps and verifies the master password and hands out the entry cipher.
//
// The vault file is salt(16) || nonce(12) || ciphertext || tag, where the
// ciphertext is the master password sealed under a key derived from the
// password and the salt. The file is the only durable trace of the password.
package vault

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/and161185/gk-vault/internal/crypto"
	"github.com/and161185/gk-vault/internal/errs"
	"github.com/and161185/gk-vault/internal/passgen"
)

// minFileLen is salt plus nonce plus the Poly1305 tag of an empty plaintext.
const minFileLen = crypto.SaltLen + crypto.NonceLen + 16

// PasswordSource supplies the master password for the state the vault is in.
type PasswordSource interface {
	// NewMasterPassword is called on first run, when no vault file exists.
	NewMasterPassword() (string, error)
	// MasterPassword is called to unlock an existing vault.
	MasterPassword() (string, error)
}

// Vault manages the verification file at a fixed path.
type Vault struct {
	path string
}

// New returns a Vault bound to path.
func New(path string) *Vault { return &Vault{path: path} }

// Path returns the vault file location.
func (v *Vault) Path() string { return v.path }

// Exists reports whether the vault file is present.
func (v *Vault) Exists() (bool, error) {
	_, err := os.Stat(v.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat vault: %w", err)
	}
}

// Open bootstraps the vault when absent and unlocks it otherwise.
func (v *Vault) Open(src PasswordSource) (*crypto.Cipher, error) {
	ok, err := v.Exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		pw, err := src.NewMasterPassword()
		if err != nil {
			return nil, err
		}
		return v.Bootstrap(pw)
	}
	pw, err := src.MasterPassword()
	if err != nil {
		return nil, err
	}
	return v.Unlock(pw)
}

// Bootstrap creates the vault file for password and returns the entry cipher.
func (v *Vault) Bootstrap(password string) (*crypto.Cipher, error) {
	if ok, err := v.Exists(); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("vault %s: %w", v.path, errs.ErrAlreadyExists)
	}
	if utf8.RuneCountInString(password) < passgen.MinLength || !passgen.ValidateComplexity(password) {
		return nil, fmt.Errorf("%w: master password needs at least %d characters with lower, upper, digit and symbol",
			errs.ErrValidation, passgen.MinLength)
	}

	salt, err := crypto.RandBytes(crypto.SaltLen)
	if err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	verify, entry, err := deriveKeys(password, salt)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(verify)
	defer crypto.Zero(entry)

	vc, err := crypto.NewCipher(verify)
	if err != nil {
		return nil, err
	}
	sealed, err := vc.EncryptString(password)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(salt)+len(sealed))
	data = append(data, salt...)
	data = append(data, sealed...)
	if err := writeFileAtomic(v.path, data); err != nil {
		return nil, fmt.Errorf("write vault: %w", err)
	}
	return crypto.NewCipher(entry)
}

// Unlock verifies password against the vault file and returns the entry cipher.
// Any mismatch, tampering or truncation yields errs.ErrUnauthorized.
func (v *Vault) Unlock(password string) (*crypto.Cipher, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("vault %s: %w", v.path, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("read vault: %w", err)
	}
	if len(data) < minFileLen {
		return nil, errs.ErrUnauthorized
	}

	salt, sealed := data[:crypto.SaltLen], data[crypto.SaltLen:]
	verify, entry, err := deriveKeys(password, salt)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(verify)
	defer crypto.Zero(entry)

	vc, err := crypto.NewCipher(verify)
	if err != nil {
		return nil, err
	}
	got, err := vc.Decrypt(sealed)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	defer crypto.Zero(got)
	if subtle.ConstantTimeCompare(got, []byte(password)) != 1 {
		return nil, errs.ErrUnauthorized
	}
	return crypto.NewCipher(entry)
}

// deriveKeys runs the KDF once and splits the root into per-purpose keys.
func deriveKeys(password string, salt []byte) (verify, entry []byte, err error) {
	root := crypto.DeriveKey(password, salt, crypto.Iterations)
	defer crypto.Zero(root)

	if verify, err = crypto.SubKey(root, crypto.PurposeVerify); err != nil {
		return nil, nil, fmt.Errorf("derive verify key: %w", err)
	}
	if entry, err = crypto.SubKey(root, crypto.PurposeEntry); err != nil {
		crypto.Zero(verify)
		return nil, nil, fmt.Errorf("derive entry key: %w", err)
	}
	return verify, entry, nil
}

// writeFileAtomic writes data to a temp file in the target directory,
// syncs it and renames it over path, so readers see all or nothing.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = f.Chmod(0o600); err != nil {
		_ = f.Close()
		return err
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
