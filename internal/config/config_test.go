package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "gk")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pass.db", cfg.Database.Name)
	assert.Equal(t, filepath.Join(dir, "pass.db"), cfg.StoragePath())
	assert.Equal(t, filepath.Join(dir, "master.key"), cfg.VaultPath())
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.LogDir())

	b, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(b), "level: info")
	assert.Contains(t, string(b), "name: pass.db")

	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.StoragePath(), again.StoragePath())
}

func TestLoad_ReadsFileAndFillsGaps(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere.db")
	content := "logging:\n  level: debug\ndatabase:\n  name: " + abs + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, abs, cfg.StoragePath())
	assert.Equal(t, filepath.Join(dir, "master.key"), cfg.VaultPath())
	assert.Equal(t, Default().Unlock, cfg.Unlock)
}

func TestLoad_UnlockDurations(t *testing.T) {
	dir := t.TempDir()
	content := "unlock:\n  max_failures: 3\n  window: 90s\n  lockout: 1h\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, UnlockConfig{MaxFailures: 3, Window: 90 * time.Second, Lockout: time.Hour}, cfg.Unlock)
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("logging: [unclosed"), 0o600))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestDir_EnvOverrides(t *testing.T) {
	t.Setenv(DirEnv, "/tmp/gk-explicit")
	d, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/gk-explicit", d)

	t.Setenv(DirEnv, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	d, err = Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "gk-vault"), d)
}
