// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/gk-vault/internal/model"
)

// EntryRepository persists sealed credential rows. It never sees plaintext secrets.
type EntryRepository interface {
	// Insert stores a new row and returns the store-assigned ID.
	Insert(ctx context.Context, e *model.SealedEntry) (int64, error)
	// List returns every row ordered by ID.
	List(ctx context.Context) ([]model.SealedEntry, error)
	// Get loads a row by ID; errs.ErrNotFound when absent.
	Get(ctx context.Context, id int64) (*model.SealedEntry, error)
	// Update rewrites the mutable columns of a row; created_at is left untouched.
	// errs.ErrNotFound when no row matches.
	Update(ctx context.Context, e *model.SealedEntry) error
	// Delete removes a row; errs.ErrNotFound when no row matches.
	Delete(ctx context.Context, id int64) error
	// Search returns rows whose service or username contains query, ordered by ID.
	Search(ctx context.Context, query string) ([]model.SealedEntry, error)
}
