package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/and161185/gk-vault/internal/errs"
	"github.com/and161185/gk-vault/internal/model"
	"github.com/and161185/gk-vault/internal/repository"
)

var _ repository.EntryRepository = (*EntryRepo)(nil)

// EntryRepo implements EntryRepository using SQLite.
type EntryRepo struct{ db *DB }

// NewEntryRepo constructs an entry repository.
func NewEntryRepo(db *DB) *EntryRepo { return &EntryRepo{db: db} }

const selectCols = `SELECT id, service, username, password, url, notes, created_at, updated_at FROM passwords`

// Insert stores a new row and returns its ID.
func (r *EntryRepo) Insert(ctx context.Context, e *model.SealedEntry) (int64, error) {
	const q = `
INSERT INTO passwords (service, username, password, url, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.SQL.ExecContext(ctx, q,
		e.Service, e.Username, e.SecretEnc, e.URL, e.Notes,
		model.FormatTime(e.CreatedAt), model.FormatTime(e.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert entry id: %w", err)
	}
	return id, nil
}

// List returns all rows ordered by id.
func (r *EntryRepo) List(ctx context.Context) ([]model.SealedEntry, error) {
	return r.query(ctx, selectCols+` ORDER BY id`)
}

// Get loads a single row by id.
func (r *EntryRepo) Get(ctx context.Context, id int64) (*model.SealedEntry, error) {
	row := r.db.SQL.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entry %d: %w", id, errs.ErrNotFound)
		}
		return nil, err
	}
	return e, nil
}

// Update rewrites service, username, password, url, notes and updated_at.
func (r *EntryRepo) Update(ctx context.Context, e *model.SealedEntry) error {
	const q = `
UPDATE passwords
SET service = ?, username = ?, password = ?, url = ?, notes = ?, updated_at = ?
WHERE id = ?`
	res, err := r.db.SQL.ExecContext(ctx, q,
		e.Service, e.Username, e.SecretEnc, e.URL, e.Notes,
		model.FormatTime(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", e.ID, err)
	}
	return requireAffected(res, e.ID)
}

// Delete removes the row with id.
func (r *EntryRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.SQL.ExecContext(ctx, `DELETE FROM passwords WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// Search matches query as a literal, ASCII case-insensitive substring of
// service or username. The password column is never matched.
func (r *EntryRepo) Search(ctx context.Context, query string) ([]model.SealedEntry, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.query(ctx,
		selectCols+` WHERE service LIKE ?1 ESCAPE '\' OR username LIKE ?1 ESCAPE '\' ORDER BY id`,
		pattern,
	)
}

func (r *EntryRepo) query(ctx context.Context, q string, args ...any) ([]model.SealedEntry, error) {
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	out := []model.SealedEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*model.SealedEntry, error) {
	var (
		e                    model.SealedEntry
		createdAt, updatedAt string
	)
	if err := s.Scan(&e.ID, &e.Service, &e.Username, &e.SecretEnc, &e.URL, &e.Notes, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	var err error
	if e.CreatedAt, err = model.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("entry %d created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = model.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("entry %d updated_at: %w", e.ID, err)
	}
	return &e, nil
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry %d: %w", id, errs.ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
