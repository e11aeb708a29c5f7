// Package stores selects the cache.Store backend by name.
package stores

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pleiades/flickr-portlet/internal/cache"
	"github.com/pleiades/flickr-portlet/internal/core/config"
)

type Factory func(ctx context.Context, cfg config.CacheCfg, logger *slog.Logger) (cache.Store, error)

const fallback = "memory"

var reg = map[string]Factory{}

func Register(name string, f Factory) {
	reg[name] = f
}

// Names lists the registered backends.
func Names() []string {
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// New builds the named backend. Unknown names fall back to the in-memory
// store; a known backend that fails to start is an error.
func New(ctx context.Context, name string, cfg config.CacheCfg, logger *slog.Logger) (cache.Store, error) {
	if f, ok := reg[name]; ok {
		return f(ctx, cfg, logger)
	}
	if f, ok := reg[fallback]; ok {
		logger.Warn("unknown cache backend; falling back to memory", "backend", name, "known", Names())
		return f(ctx, cfg, logger)
	}
	return nil, fmt.Errorf("no factory for cache backend %q and no %s registered", name, fallback)
}
