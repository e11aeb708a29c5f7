package stores

import (
	"context"
	"log/slog"

	"github.com/pleiades/flickr-portlet/internal/cache"
	"github.com/pleiades/flickr-portlet/internal/cache/lrustore"
	"github.com/pleiades/flickr-portlet/internal/cache/memstore"
	"github.com/pleiades/flickr-portlet/internal/cache/redisstore"
	"github.com/pleiades/flickr-portlet/internal/core/config"
)

func init() {
	Register("memory", func(_ context.Context, cfg config.CacheCfg, _ *slog.Logger) (cache.Store, error) {
		return memstore.New(cfg.BucketWidth), nil
	})
	Register("lru", func(_ context.Context, cfg config.CacheCfg, _ *slog.Logger) (cache.Store, error) {
		return lrustore.New(cfg.LRUSize, cfg.BucketWidth)
	})
	Register("redis", func(ctx context.Context, cfg config.CacheCfg, logger *slog.Logger) (cache.Store, error) {
		rc, err := redisstore.New(ctx, cfg.RedisAddr, cfg.OpTimeout)
		if err != nil {
			return nil, err
		}
		logger.Info("redis cache connected", "addr", cfg.RedisAddr)
		return rc, nil
	})
}
