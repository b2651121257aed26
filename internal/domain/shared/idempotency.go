package shared

import (
	"context"
	"time"
)

// IdempotencyStore reserves client-supplied idempotency keys so a
// retried request cannot start a second mutation while the first one
// is still in flight.
type IdempotencyStore interface {
	// Reserve marks a key as in-flight with a TTL.
	// Returns true if the key was newly reserved, false if a request
	// with the same key is already being processed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees a reserved key so the client may retry after the
	// original request failed before committing.
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL bounds how long an in-flight reservation is held before a
	// retry with the same key is allowed through again.
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
