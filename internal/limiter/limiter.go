// Package limiter throttles repeated failed vault unlocks across process runs.
package limiter

import (
	"context"
	"time"
)

// Limiter controls unlock attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether an unlock is currently allowed and the optional retry-after.
	Allow(ctx context.Context, subject string) (bool, time.Duration, error)
	// Success resets counters after a successful unlock.
	Success(ctx context.Context, subject string) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, subject string) (bool, time.Duration, error)
}
