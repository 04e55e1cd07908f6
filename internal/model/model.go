// Package model defines domain entities used by services and repositories.
package model

import "time"

// TimeLayout is the fixed-width UTC ISO-8601 form timestamps are persisted in.
// Fixed width keeps lexical and chronological order identical.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is a credential record with its secret in plaintext.
type Entry struct {
	ID        int64 // store-assigned; 0 before first persistence
	Service   string
	Username  string
	Secret    string // plaintext in memory only
	URL       string
	Notes     string
	CreatedAt time.Time // immutable after create
	UpdatedAt time.Time // refreshed on every update
}

// EntryInput is a fully resolved create/update request.
type EntryInput struct {
	Service  string
	Username string
	Secret   string
	URL      string
	Notes    string
}

// SealedEntry is the persisted row form: the secret is replaced by its
// base64-encoded AEAD blob.
type SealedEntry struct {
	ID        int64
	Service   string
	Username  string
	SecretEnc string // base64(nonce || ciphertext || tag)
	URL       string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FormatTime renders t in TimeLayout after converting to UTC.
func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// ParseTime parses a TimeLayout timestamp.
func ParseTime(s string) (time.Time, error) { return time.Parse(TimeLayout, s) }
