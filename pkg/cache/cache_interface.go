package cache

import (
	"context"
	"time"
)

// Cache interface defines the contract for the cache layer.
// Implementations: Redis (production), no-op (tests, redis down).
type Cache interface {
	// Get loads a value and unmarshals it into dest.
	// found = false means cache miss, dest untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores a value with TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	Ping(ctx context.Context) error
}

// Noop is a Cache that never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error { return nil }
func (Noop) DeletePattern(context.Context, string) error { return nil }
func (Noop) Ping(context.Context) error { return nil }
