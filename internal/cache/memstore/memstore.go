// Package memstore is the in-process cache.Store backed by go-cache.
package memstore

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pleiades/flickr-portlet/internal/core/observability"
)

const backend = "memory"

type Store struct {
	c *gocache.Cache
}

// New builds a store whose entries expire after defaultTTL unless Set is
// given an explicit ttl. Expired entries are purged every 2*defaultTTL.
func New(defaultTTL time.Duration) *Store {
	if defaultTTL <= 0 {
		defaultTTL = 2 * time.Hour
	}
	return &Store{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	v, ok := s.c.Get(key)
	observability.ObserveCacheOp(backend, "get", nil, time.Since(start).Seconds())
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

func (s *Store) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	start := time.Now()
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.c.Set(key, val, ttl)
	observability.ObserveCacheOp(backend, "set", nil, time.Since(start).Seconds())
	return nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	start := time.Now()
	for _, k := range keys {
		s.c.Delete(k)
	}
	observability.ObserveCacheOp(backend, "del", nil, time.Since(start).Seconds())
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Len counts stored entries, including expired ones not yet purged.
func (s *Store) Len() int { return s.c.ItemCount() }
