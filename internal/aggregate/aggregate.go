// Package aggregate builds the portlet document for one subject from the
// related-count and portrait resolvers.
package aggregate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/pleiades/flickr-portlet/internal/core/model"
	"github.com/pleiades/flickr-portlet/internal/flickr"
	"github.com/pleiades/flickr-portlet/internal/logger"
	"github.com/pleiades/flickr-portlet/internal/subject"
)

type Resolver interface {
	Related(ctx context.Context, s model.SubjectID) (model.Related, error)
	Portrait(ctx context.Context, s model.SubjectID) (model.PortraitResult, error)
}

type Aggregator struct {
	res    Resolver
	logger *slog.Logger
}

func New(res Resolver, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Aggregator{res: res, logger: logger}
}

// Aggregate resolves subjectCtx and runs both lookups concurrently. A failed
// lookup leaves its key out. Only a portrait failure changes the status,
// which then carries the upstream's status code.
func (a *Aggregator) Aggregate(ctx context.Context, subjectCtx any) (model.Response, int) {
	s := subject.Resolve(subjectCtx)
	ctx = logger.WithSubject(ctx, s.String())

	var (
		wg                  sync.WaitGroup
		related             model.Related
		portrait            model.PortraitResult
		relErr, portraitErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer recoverInto(&relErr, "related")
		related, relErr = a.res.Related(ctx, s)
	}()
	go func() {
		defer wg.Done()
		defer recoverInto(&portraitErr, "portrait")
		portrait, portraitErr = a.res.Portrait(ctx, s)
	}()
	wg.Wait()

	var resp model.Response
	status := http.StatusOK

	if relErr != nil {
		a.logger.WarnContext(ctx, "related lookup failed", "status", flickr.StatusOf(relErr), "err", relErr)
	} else {
		resp.Related = &related
	}

	if portraitErr != nil {
		status = portraitStatus(portraitErr)
		a.logger.WarnContext(ctx, "portrait lookup failed", "status", status, "err", portraitErr)
	} else {
		resp.Portrait = portrait
	}

	return resp, status
}

// recoverInto turns a panic in a lookup goroutine into that lookup's error.
// The request middleware only recovers the handler goroutine.
func recoverInto(err *error, lookup string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s lookup panicked: %v", lookup, r)
	}
}

// portraitStatus is always an error code, since 1xx, 204 and 304 responses
// carry no body.
func portraitStatus(err error) int {
	code := flickr.StatusOf(err)
	if code < http.StatusBadRequest {
		return http.StatusBadGateway
	}
	return code
}
