// Package service contains the application services over the entry store.
package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/gk-vault/internal/errs"
	"github.com/and161185/gk-vault/internal/model"
	"github.com/and161185/gk-vault/internal/repository"
)

// EntryService defines CRUD and search over credential entries with
// transparent encryption of the secret field.
type EntryService interface {
	// Create stores a new entry and returns its ID.
	Create(ctx context.Context, in model.EntryInput) (int64, error)
	// Import stores a previously exported entry, keeping its timestamps.
	Import(ctx context.Context, e model.Entry) (int64, error)
	// ReadAll returns every entry with decrypted secrets.
	ReadAll(ctx context.Context) ([]model.Entry, error)
	// ReadByID returns one entry with its decrypted secret.
	ReadByID(ctx context.Context, id int64) (model.Entry, error)
	// Update replaces the mutable fields of an entry.
	Update(ctx context.Context, id int64, in model.EntryInput) error
	// Delete removes an entry.
	Delete(ctx context.Context, id int64) error
	// Search returns entries whose service or username contains query.
	Search(ctx context.Context, query string) ([]model.Entry, error)
}

// SecretCipher seals and opens secret fields.
type SecretCipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)
}

type EntryServiceImpl struct {
	repo   repository.EntryRepository
	cipher SecretCipher
	log    *zap.Logger
	now    func() time.Time
}

// NewEntryService constructs EntryService. cipher must come from an unlocked vault.
func NewEntryService(repo repository.EntryRepository, cipher SecretCipher, log *zap.Logger) *EntryServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &EntryServiceImpl{
		repo:   repo,
		cipher: cipher,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create validates input, seals the secret and inserts a row stamped with now.
func (s *EntryServiceImpl) Create(ctx context.Context, in model.EntryInput) (int64, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}
	now := s.now()
	return s.insert(ctx, in, now, now)
}

// Import inserts e under a new ID. Zero timestamps are stamped with now and
// updated_at is raised to created_at when it precedes it.
func (s *EntryServiceImpl) Import(ctx context.Context, e model.Entry) (int64, error) {
	created, updated := e.CreatedAt.UTC(), e.UpdatedAt.UTC()
	if e.CreatedAt.IsZero() || e.UpdatedAt.IsZero() {
		now := s.now()
		if e.CreatedAt.IsZero() {
			created = now
		}
		if e.UpdatedAt.IsZero() {
			updated = now
		}
	}
	if updated.Before(created) {
		updated = created
	}
	in := model.EntryInput{
		Service:  e.Service,
		Username: e.Username,
		Secret:   e.Secret,
		URL:      e.URL,
		Notes:    e.Notes,
	}
	return s.insert(ctx, in, created, updated)
}

func (s *EntryServiceImpl) insert(ctx context.Context, in model.EntryInput, created, updated time.Time) (int64, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}
	enc, err := s.seal(in.Secret)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.Insert(ctx, &model.SealedEntry{
		Service:   in.Service,
		Username:  in.Username,
		SecretEnc: enc,
		URL:       in.URL,
		Notes:     in.Notes,
		CreatedAt: created,
		UpdatedAt: updated,
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("entry created", zap.Int64("id", id))
	return id, nil
}

// ReadAll returns all entries. A single undecryptable row fails the call.
func (s *EntryServiceImpl) ReadAll(ctx context.Context) ([]model.Entry, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.openAll(rows)
}

// ReadByID returns the entry with id.
func (s *EntryServiceImpl) ReadByID(ctx context.Context, id int64) (model.Entry, error) {
	if err := validateID(id); err != nil {
		return model.Entry{}, err
	}
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.Entry{}, err
	}
	return s.open(*row)
}

// Update re-seals the secret and refreshes updated_at; created_at is kept.
func (s *EntryServiceImpl) Update(ctx context.Context, id int64, in model.EntryInput) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := validateInput(in); err != nil {
		return err
	}
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	enc, err := s.seal(in.Secret)
	if err != nil {
		return err
	}
	now := s.now()
	if now.Before(cur.CreatedAt) {
		// Clock stepped back since creation; keep updated_at >= created_at.
		now = cur.CreatedAt
	}
	err = s.repo.Update(ctx, &model.SealedEntry{
		ID:        id,
		Service:   in.Service,
		Username:  in.Username,
		SecretEnc: enc,
		URL:       in.URL,
		Notes:     in.Notes,
		CreatedAt: cur.CreatedAt,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}
	s.log.Info("entry updated", zap.Int64("id", id))
	return nil
}

// Delete removes the entry with id.
func (s *EntryServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("entry deleted", zap.Int64("id", id))
	return nil
}

// Search matches service and username only; results carry decrypted secrets like ReadAll.
func (s *EntryServiceImpl) Search(ctx context.Context, query string) ([]model.Entry, error) {
	rows, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	s.log.Debug("entry search", zap.Int("matches", len(rows)))
	return s.openAll(rows)
}

func (s *EntryServiceImpl) seal(secret string) (string, error) {
	blob, err := s.cipher.Encrypt([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("encrypt secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

func (s *EntryServiceImpl) open(row model.SealedEntry) (model.Entry, error) {
	blob, err := base64.StdEncoding.DecodeString(row.SecretEnc)
	if err != nil {
		return model.Entry{}, fmt.Errorf("entry %d: %w", row.ID, errs.ErrCrypto)
	}
	pt, err := s.cipher.Decrypt(blob)
	if err != nil {
		return model.Entry{}, fmt.Errorf("entry %d: %w", row.ID, err)
	}
	return model.Entry{
		ID:        row.ID,
		Service:   row.Service,
		Username:  row.Username,
		Secret:    string(pt),
		URL:       row.URL,
		Notes:     row.Notes,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (s *EntryServiceImpl) openAll(rows []model.SealedEntry) ([]model.Entry, error) {
	out := make([]model.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := s.open(row)
		if err != nil {
			s.log.Error("entry decrypt failed", zap.Int64("id", row.ID))
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func validateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: entry id must be positive, got %d", errs.ErrValidation, id)
	}
	return nil
}

func validateInput(in model.EntryInput) error {
	if in.Service == "" {
		return fmt.Errorf("%w: empty service", errs.ErrValidation)
	}
	return nil
}
