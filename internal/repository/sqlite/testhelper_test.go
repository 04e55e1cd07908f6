package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"go.uber.org/zap"
)

// setupTestDB creates a named shared in-memory database with migrations applied.
// The name is derived from t.Name() so parallel tests stay isolated.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(ON)", url.PathEscape(t.Name()))
	db, err := OpenDSN(context.Background(), dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
