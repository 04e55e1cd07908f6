package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/gk-vault/internal/model"
	"github.com/and161185/gk-vault/internal/service"
)

// blockingStore waits for the caller's context and records each deadline it saw.
type blockingStore struct {
	deadlines []time.Time
}

var _ service.EntryService = (*blockingStore)(nil)

func (b *blockingStore) wait(ctx context.Context) error {
	dl, ok := ctx.Deadline()
	if !ok {
		return errors.New("call without deadline")
	}
	b.deadlines = append(b.deadlines, dl)
	<-ctx.Done()
	return ctx.Err()
}

func (b *blockingStore) Create(ctx context.Context, _ model.EntryInput) (int64, error) {
	return 0, b.wait(ctx)
}

func (b *blockingStore) Import(ctx context.Context, _ model.Entry) (int64, error) {
	return 0, b.wait(ctx)
}

func (b *blockingStore) ReadAll(ctx context.Context) ([]model.Entry, error) {
	return nil, b.wait(ctx)
}

func (b *blockingStore) ReadByID(ctx context.Context, _ int64) (model.Entry, error) {
	return model.Entry{}, b.wait(ctx)
}

func (b *blockingStore) Update(ctx context.Context, _ int64, _ model.EntryInput) error {
	return b.wait(ctx)
}

func (b *blockingStore) Delete(ctx context.Context, _ int64) error {
	return b.wait(ctx)
}

func (b *blockingStore) Search(ctx context.Context, _ string) ([]model.Entry, error) {
	return nil, b.wait(ctx)
}

func Test_timeoutStore_EachCallHasItsOwnDeadline(t *testing.T) {
	inner := &blockingStore{}
	s := &timeoutStore{next: inner, d: 20 * time.Millisecond}
	ctx := context.Background()

	calls := map[string]func() error{
		"Create":   func() error { _, err := s.Create(ctx, model.EntryInput{}); return err },
		"Import":   func() error { _, err := s.Import(ctx, model.Entry{}); return err },
		"ReadAll":  func() error { _, err := s.ReadAll(ctx); return err },
		"ReadByID": func() error { _, err := s.ReadByID(ctx, 1); return err },
		"Update":   func() error { return s.Update(ctx, 1, model.EntryInput{}) },
		"Delete":   func() error { return s.Delete(ctx, 1) },
		"Search":   func() error { _, err := s.Search(ctx, "q"); return err },
	}
	for name, call := range calls {
		start := time.Now()
		err := call()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("%s: want deadline exceeded, got %v", name, err)
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Fatalf("%s: returned after %v", name, elapsed)
		}
	}

	// A pause between calls, like a prompt, must not eat into the next call's budget.
	if len(inner.deadlines) != len(calls) {
		t.Fatalf("recorded %d deadlines, want %d", len(inner.deadlines), len(calls))
	}
	for i := 1; i < len(inner.deadlines); i++ {
		if !inner.deadlines[i].After(inner.deadlines[i-1]) {
			t.Fatalf("deadline %d not refreshed: %v <= %v", i, inner.deadlines[i], inner.deadlines[i-1])
		}
	}
}

func Test_timeoutStore_ParentCancelWins(t *testing.T) {
	s := &timeoutStore{next: &blockingStore{}, d: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ReadAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
}
