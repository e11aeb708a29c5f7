// Package lrustore is a size-bounded in-process cache.Store. Entries carry
// their own deadline and are evicted least-recently-used once full.
package lrustore

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pleiades/flickr-portlet/internal/core/observability"
)

const backend = "lru"

type entry struct {
	val []byte
	exp time.Time
}

type Store struct {
	lru        *lru.Cache[string, entry]
	defaultTTL time.Duration
	now        func() time.Time
}

func New(size int, defaultTTL time.Duration) (*Store, error) {
	if size <= 0 {
		size = 4096
	}
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("lru cache: %w", err)
	}
	return &Store{lru: c, defaultTTL: defaultTTL, now: time.Now}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	defer func() { observability.ObserveCacheOp(backend, "get", nil, time.Since(start).Seconds()) }()

	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && !s.now().Before(e.exp) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (s *Store) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	start := time.Now()
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	e := entry{val: val}
	if ttl > 0 {
		e.exp = s.now().Add(ttl)
	}
	s.lru.Add(key, e)
	observability.ObserveCacheOp(backend, "set", nil, time.Since(start).Seconds())
	return nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	start := time.Now()
	for _, k := range keys {
		s.lru.Remove(k)
	}
	observability.ObserveCacheOp(backend, "del", nil, time.Since(start).Seconds())
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Len() int { return s.lru.Len() }
