package filesearch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "report.txt"))
	touch(t, filepath.Join(root, "a", "report-2026.csv"))
	touch(t, filepath.Join(root, "a", "b", "c", "old_report"))
	touch(t, filepath.Join(root, "a", "notes.md"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "report-dir"), 0o755))

	got, err := Find(context.Background(), root, "report")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "b", "c", "old_report"),
		filepath.Join(root, "a", "report-2026.csv"),
		filepath.Join(root, "report.txt"),
	}, got, "directories must not be reported")
}

func TestFind_DeepTree(t *testing.T) {
	root := t.TempDir()
	dir := root
	for i := 0; i < 200; i++ {
		dir = filepath.Join(dir, "d")
	}
	if len(dir) > 3000 {
		t.Skip("path too long for this platform")
	}
	touch(t, filepath.Join(dir, "needle"))

	got, err := Find(context.Background(), root, "needle")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, strings.HasSuffix(got[0], "needle"))
}

func TestFind_MissingRoot(t *testing.T) {
	_, err := Find(context.Background(), filepath.Join(t.TempDir(), "nope"), "x")
	require.Error(t, err)
}

func TestFind_Cancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "x"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Find(ctx, root, "x")
	require.ErrorIs(t, err, context.Canceled)
}
