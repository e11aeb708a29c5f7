// Package cache defines the byte store behind the time-bucketed cache.
package cache

import (
	"context"
	"time"
)

// Store is a byte-valued key/value store. Get reports a missing key with
// ok=false and a nil error. ttl <= 0 means the backend default.
type Store interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close() error
}
