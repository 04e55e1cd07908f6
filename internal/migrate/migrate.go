// Package migrate applies embedded SQL migrations on startup.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/and161185/gk-vault/migrations"
)

// Up runs all pending migrations from the embedded filesystem against an open SQLite handle.
// Already-applied migrations are skipped, so it is safe on every start.
func Up(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	res, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	for _, r := range res {
		log.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.Duration("dur", r.Duration),
		)
	}
	return nil
}
