package limiter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/gk-vault/internal/model"
)

// SQLite is a limiter stored in the entry database with a sliding window and lockout.
// The table lives in the unencrypted part of the store, so it works before unlock.
type SQLite struct {
	db       *sql.DB
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

var _ Limiter = (*SQLite)(nil)

// NewSQLite constructs a SQLite-backed limiter.
func NewSQLite(db *sql.DB, window time.Duration, maxFails int, blockFor time.Duration) *SQLite {
	return &SQLite{
		db:       db,
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Allow reports whether unlocking is currently allowed and a retry-after duration.
func (l *SQLite) Allow(ctx context.Context, subject string) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM unlock_attempts WHERE subject = ?`
	var blocked string
	err := l.db.QueryRowContext(ctx, q, subject).Scan(&blocked)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return true, 0, nil
	case err != nil:
		return false, 0, fmt.Errorf("read unlock attempts: %w", err)
	}
	if blocked == "" {
		return true, 0, nil
	}
	until, err := model.ParseTime(blocked)
	if err != nil {
		return false, 0, fmt.Errorf("parse blocked_until: %w", err)
	}
	if now := l.now(); until.After(now) {
		return false, until.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for subject.
func (l *SQLite) Success(ctx context.Context, subject string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM unlock_attempts WHERE subject = ?`, subject); err != nil {
		return fmt.Errorf("reset unlock attempts: %w", err)
	}
	return nil
}

// Failure records a failed attempt. Failures older than the window, or made after
// a lockout has expired, restart the count; reaching maxFails blocks for blockFor.
func (l *SQLite) Failure(ctx context.Context, subject string) (bool, time.Duration, error) {
	now := l.now()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		fails   int
		blocked string
		updated string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT fail_count, blocked_until, updated_at FROM unlock_attempts WHERE subject = ?`, subject,
	).Scan(&fails, &blocked, &updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		fails = 0
	case err != nil:
		return false, 0, fmt.Errorf("read unlock attempts: %w", err)
	default:
		last, perr := model.ParseTime(updated)
		if perr != nil || now.Sub(last) > l.window {
			fails = 0
		}
		// An expired lockout starts a fresh count.
		if blocked != "" {
			until, perr := model.ParseTime(blocked)
			if perr != nil || !until.After(now) {
				fails = 0
			}
		}
	}
	fails++

	blocked = ""
	if fails >= l.maxFails {
		blocked = model.FormatTime(now.Add(l.blockFor))
	}
	const upsert = `
INSERT INTO unlock_attempts (subject, fail_count, blocked_until, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (subject) DO UPDATE SET
  fail_count = excluded.fail_count,
  blocked_until = excluded.blocked_until,
  updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, subject, fails, blocked, model.FormatTime(now)); err != nil {
		return false, 0, fmt.Errorf("record unlock failure: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit: %w", err)
	}
	if blocked != "" {
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
