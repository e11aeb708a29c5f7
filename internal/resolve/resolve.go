// Package resolve turns Flickr responses into the related-photo count and
// the portrait photo for a subject.
package resolve

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/pleiades/flickr-portlet/internal/cache/bucketed"
	"github.com/pleiades/flickr-portlet/internal/flickr"
)

const (
	relatedTagPrefix  = "pleiades:*="
	depictsTagPrefix  = "pleiades:depicts="
	DefaultTagsBase   = "https://www.flickr.com/photos/tags/"
	DefaultPoolID     = "1876758@N22"
	portraitExtraView = "views"
)

// Memo caches computed bytes per (op, subject). *bucketed.Cache implements it.
type Memo interface {
	Cached(ctx context.Context, op, subject string, compute bucketed.ComputeFunc) ([]byte, error)
}

type Config struct {
	TagsBase string
	PoolID   string
}

type Option func(*Resolver)

// WithRand fixes the source used for wildcard portrait picks.
func WithRand(r *rand.Rand) Option {
	return func(rs *Resolver) { rs.rnd = r }
}

type Resolver struct {
	api    flickr.Caller
	memo   Memo
	cfg    Config
	logger *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func New(api flickr.Caller, memo Memo, cfg Config, logger *slog.Logger, opts ...Option) *Resolver {
	if cfg.TagsBase == "" {
		cfg.TagsBase = DefaultTagsBase
	}
	if cfg.PoolID == "" {
		cfg.PoolID = DefaultPoolID
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Resolver{api: api, memo: memo, cfg: cfg, logger: logger}
	for _, o := range opts {
		o(r)
	}
	if r.rnd == nil {
		r.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r
}

func (r *Resolver) fetch(ctx context.Context, op, subject string, q flickr.Query) (flickr.Photos, error) {
	raw, err := r.memo.Cached(ctx, op, subject, func(ctx context.Context) ([]byte, error) {
		return r.api.Call(ctx, q)
	})
	if err != nil {
		return flickr.Photos{}, err
	}
	return flickr.DecodePhotos(raw)
}

func (r *Resolver) intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.IntN(n)
}
