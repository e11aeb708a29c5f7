package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/pleiades/flickr-portlet/internal/aggregate"
	"github.com/pleiades/flickr-portlet/internal/cache"
	"github.com/pleiades/flickr-portlet/internal/cache/bucketed"
	"github.com/pleiades/flickr-portlet/internal/cache/stores"
	"github.com/pleiades/flickr-portlet/internal/core/config"
	"github.com/pleiades/flickr-portlet/internal/core/httpclient"
	"github.com/pleiades/flickr-portlet/internal/core/observability"
	"github.com/pleiades/flickr-portlet/internal/core/server"
	"github.com/pleiades/flickr-portlet/internal/flickr"
	"github.com/pleiades/flickr-portlet/internal/invalidation/kafkaconsumer"
	"github.com/pleiades/flickr-portlet/internal/logger"
	"github.com/pleiades/flickr-portlet/internal/metrics"
	"github.com/pleiades/flickr-portlet/internal/resolve"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	config.LoadDotEnv()
	cfg := config.FromEnv()

	cacheFlag := flag.String("cache", "", "cache backend ("+strings.Join(stores.Names(), "|")+")")
	addrFlag := flag.String("addr", "", "listen address")
	flag.Parse()
	if *cacheFlag != "" {
		cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(*cacheFlag))
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "portlet",
	}, os.Stdout)

	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting flickr portlet",
		"addr", cfg.Addr,
		"version", Version,
		"cache", cfg.Cache.Backend,
		"bucket", cfg.Cache.BucketWidth.String())
	if cfg.Flickr.APIKey == "" {
		appLog.Warn("FLICKR_API_KEY is empty; upstream calls will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := stores.New(ctx, cfg.Cache.Backend, cfg.Cache, appLog)
	if err != nil {
		appLog.Error("cache setup failed", "backend", cfg.Cache.Backend, "err", err)
		return 1
	}
	if c, ok := store.(cache.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	var cacheOpts []bucketed.Option
	if cfg.Cache.Coalesce {
		cacheOpts = append(cacheOpts, bucketed.WithCoalescing())
	}
	memo := bucketed.New(store, cfg.Cache.BucketWidth, appLog.With("component", "cache"), cacheOpts...)

	api, err := flickr.New(appLog,
		httpclient.NewOutbound(cfg.Flickr.ConnectTimeout, cfg.Flickr.ReadTimeout),
		cfg.Flickr.APIURL, cfg.Flickr.APIKey,
		flickr.WithRateLimit(cfg.Flickr.MaxRPS),
		flickr.WithUserAgent("pleiades-flickr-portlet/"+Version),
	)
	if err != nil {
		appLog.Error("failed to initialize flickr client", "err", err)
		return 1
	}

	res := resolve.New(api, memo, resolve.Config{
		TagsBase: cfg.Flickr.TagsBase,
		PoolID:   cfg.Flickr.PoolID,
	}, appLog)
	agg := aggregate.New(res, appLog)

	if cfg.Metrics.Enabled {
		startMetrics(ctx, appLog, cfg.Metrics)
	}

	if cfg.Invalidation.Enabled {
		cons := kafkaconsumer.New(kafkaconsumer.FromConfig(cfg), appLog, memo)
		go func() {
			if err := cons.Start(ctx); err != nil {
				appLog.Error("invalidation consumer stopped", "err", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, agg, memo); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func startMetrics(ctx context.Context, l *slog.Logger, mc config.MetricsCfg) {
	p := metrics.Init(metrics.Config{
		Enabled: true,
		Addr:    mc.Addr,
		Path:    mc.Path,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})

	mux := http.NewServeMux()
	mux.Handle(mc.Path, p.Handler())

	srv := &http.Server{
		Addr:              mc.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		l.Info("metrics listening", "addr", mc.Addr, "path", mc.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("metrics server exited", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Warn("metrics shutdown", "err", err)
		}
	}()
}
