package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pleiades/flickr-portlet/internal/core/config"
	"github.com/pleiades/flickr-portlet/internal/core/health"
	middleware "github.com/pleiades/flickr-portlet/internal/core/middleware"
	"github.com/pleiades/flickr-portlet/internal/core/router"
)

// NewHandler wires the portlet routes, probes and metrics behind the
// standard middleware chain. ready may be nil.
func NewHandler(cfg config.Config, logger *slog.Logger, agg router.Aggregator, ready health.Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	deps := map[string]health.Pinger{}
	if ready != nil {
		deps["cache"] = ready
	}

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(cfg.Cache.OpTimeout*4, deps))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	router.Mount(r, logger, agg)
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, agg router.Aggregator, ready health.Pinger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg, logger, agg, ready),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2*cfg.Flickr.ReadTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
