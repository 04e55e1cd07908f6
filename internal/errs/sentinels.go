// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across vault/store/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the master password could not be verified.
	// It never says which part of the check failed.
	ErrUnauthorized = errors.New("invalid master password")

	// ErrCrypto indicates a ciphertext could not be opened (wrong key, tampered or truncated data).
	ErrCrypto = errors.New("decryption failed")

	// ErrValidation indicates caller input was rejected before reaching storage.
	ErrValidation = errors.New("validation")

	// ErrAlreadyExists indicates the entity is already present (e.g., vault file on bootstrap).
	ErrAlreadyExists = errors.New("already exists")
	// ErrLocked indicates unlocking is blocked after repeated failures.
	ErrLocked = errors.New("too many failed unlock attempts")
)
