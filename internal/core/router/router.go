package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pleiades/flickr-portlet/internal/core/model"
	"github.com/pleiades/flickr-portlet/internal/core/observability"
	"github.com/pleiades/flickr-portlet/internal/subject"
)

// Route patterns, also used as metric labels.
const (
	RoutePlace    = "/places/{placeID}/flickr"
	RouteName     = "/places/{placeID}/names/{nameID}/flickr"
	RouteLocation = "/places/{placeID}/locations/{locationID}/flickr"
	RouteWildcard = "/flickr"
)

// Aggregator builds the portlet document for a subject context.
type Aggregator interface {
	Aggregate(ctx context.Context, subjectCtx any) (model.Response, int)
}

// Mount registers the portlet routes on r.
func Mount(r chi.Router, logger *slog.Logger, agg Aggregator) {
	r.Get(RoutePlace, HandlePortlet(logger, agg, RoutePlace, func(r *http.Request) any {
		return subject.PlaceRef(param(r, "placeID"))
	}))
	r.Get(RouteName, HandlePortlet(logger, agg, RouteName, func(r *http.Request) any {
		return subject.NameRef{Place: param(r, "placeID"), Name: param(r, "nameID")}
	}))
	r.Get(RouteLocation, HandlePortlet(logger, agg, RouteLocation, func(r *http.Request) any {
		return subject.LocationRef{Place: param(r, "placeID"), Location: param(r, "locationID")}
	}))
	r.Get(RouteWildcard, HandlePortlet(logger, agg, RouteWildcard, func(*http.Request) any {
		return nil
	}))
}

func param(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

// HandlePortlet serves the aggregated document with the aggregator's status.
func HandlePortlet(logger *slog.Logger, agg Aggregator, route string, subjectOf func(*http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		resp, status := agg.Aggregate(r.Context(), subjectOf(r))
		writeJSON(r.Context(), logger, sw, status, resp)

		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

func writeJSON(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.ErrorContext(ctx, "encode response", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.DebugContext(ctx, "write response", "err", err)
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
