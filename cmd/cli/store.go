package main

import (
	"context"
	"time"

	"github.com/and161185/gk-vault/internal/model"
	"github.com/and161185/gk-vault/internal/service"
)

// storeTimeout bounds a single storage call.
const storeTimeout = 30 * time.Second

// timeoutStore gives every call on next its own deadline, so a command that
// prompts between calls is never cut short by the time the user takes.
type timeoutStore struct {
	next service.EntryService
	d    time.Duration
}

var _ service.EntryService = (*timeoutStore)(nil)

func (s *timeoutStore) Create(ctx context.Context, in model.EntryInput) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.next.Create(ctx, in)
}

func (s *timeoutStore) Import(ctx context.Context, e model.Entry) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.next.Import(ctx, e)
}

func (s *timeoutStore) ReadAll(ctx context.Context) ([]model.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.next.ReadAll(ctx)
}

func (s *timeoutStore) ReadByID(ctx context.Context, id int64) (model.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.next.ReadByID(ctx, id)
}

func (s *timeoutStore) Update(ctx context.Context, id int64, in model.EntryInput) error {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.next.Update(ctx, id, in)
}

func (s *timeoutStore) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.next.Delete(ctx, id)
}

func (s *timeoutStore) Search(ctx context.Context, query string) ([]model.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.next.Search(ctx, query)
}
