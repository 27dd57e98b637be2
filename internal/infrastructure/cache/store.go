package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates the key was not found in cache or has expired
var ErrCacheMiss = errors.New("cache miss")

// Store is a key-value backend with per-entry expiry
type Store interface {
	// Get decodes the value stored under key into dest, or returns ErrCacheMiss
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores value under key until ttl has elapsed
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// HealthCheck checks if the backend is reachable
	HealthCheck(ctx context.Context) error
}
