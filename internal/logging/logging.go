// Package logging builds the zap logger used by the gk command.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger appending to dir/gk-YYYY-MM-DD.log at level.
// Unknown levels fall back to info. Every record carries the run_id of this process.
func New(level, dir string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{FilePath(dir, time.Now())}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	runID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	return log.With(zap.String("run_id", runID.String())), nil
}

// FilePath is the daily log file for t inside dir.
func FilePath(dir string, t time.Time) string {
	return filepath.Join(dir, "gk-"+t.Format("2006-01-02")+".log")
}
