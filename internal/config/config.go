// Package config loads the YAML configuration from the per-user config directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file inside the config directory.
const FileName = "config.yaml"

// DirEnv overrides the config directory.
const DirEnv = "GK_CONFIG_DIR"

const appDir = "gk-vault"

// Config is the on-disk configuration.
type Config struct {
	Logging  LogConfig      `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Vault    VaultConfig    `yaml:"vault"`
	Unlock   UnlockConfig   `yaml:"unlock"`

	dir string
}

// LogConfig selects the log level (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig names the entry store file, relative to the config dir unless absolute.
type DatabaseConfig struct {
	Name string `yaml:"name"`
}

// VaultConfig names the master verification file, relative to the config dir unless absolute.
type VaultConfig struct {
	File string `yaml:"file"`
}

// UnlockConfig throttles repeated failed unlocks. A Window of failures
// reaching MaxFailures blocks unlocking for Lockout.
type UnlockConfig struct {
	MaxFailures int           `yaml:"max_failures"`
	Window      time.Duration `yaml:"window"`
	Lockout     time.Duration `yaml:"lockout"`
}

// Default returns the configuration written on first run.
func Default() Config {
	return Config{
		Logging:  LogConfig{Level: "info"},
		Database: DatabaseConfig{Name: "pass.db"},
		Vault:    VaultConfig{File: "master.key"},
		Unlock: UnlockConfig{
			MaxFailures: 5,
			Window:      15 * time.Minute,
			Lockout:     5 * time.Minute,
		},
	}
}

// Dir resolves the config directory: $GK_CONFIG_DIR, then
// $XDG_CONFIG_HOME/gk-vault, then the OS user config dir.
func Dir() (string, error) {
	if v := os.Getenv(DirEnv); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appDir), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

// Load reads dir/config.yaml, writing the defaults first if it does not exist.
// Empty fields fall back to defaults.
func Load(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(dir, FileName)

	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, out, 0o600); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	def := Default()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = def.Database.Name
	}
	if cfg.Vault.File == "" {
		cfg.Vault.File = def.Vault.File
	}
	if cfg.Unlock.MaxFailures <= 0 {
		cfg.Unlock.MaxFailures = def.Unlock.MaxFailures
	}
	if cfg.Unlock.Window <= 0 {
		cfg.Unlock.Window = def.Unlock.Window
	}
	if cfg.Unlock.Lockout <= 0 {
		cfg.Unlock.Lockout = def.Unlock.Lockout
	}
	cfg.dir = dir
	return &cfg, nil
}

// Dir returns the directory the config was loaded from.
func (c *Config) Dir() string { return c.dir }

// StoragePath is the entry store file.
func (c *Config) StoragePath() string { return c.resolve(c.Database.Name) }

// VaultPath is the master verification file.
func (c *Config) VaultPath() string { return c.resolve(c.Vault.File) }

// LogDir is where daily log files go.
func (c *Config) LogDir() string { return filepath.Join(c.dir, "logs") }

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}
