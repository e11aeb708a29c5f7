package invalidation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pleiades/flickr-portlet/internal/cache/bucketed"
	"github.com/pleiades/flickr-portlet/internal/cache/redisstore"
	"github.com/pleiades/flickr-portlet/internal/invalidation"
	"github.com/pleiades/flickr-portlet/internal/invalidation/kafkaconsumer"
)

func TestIntegration_Miniredis_ForgetAndMetrics(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx := context.Background()
	store, err := redisstore.New(ctx, mr.Addr(), time.Second)
	if err != nil {
		t.Fatalf("redisstore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	c := bucketed.New(store, 2*time.Hour, nil)
	var calls atomic.Int32
	compute := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(`{"photos":{"total":1}}`), nil
	}
	for _, s := range []string{"149492", "*", "579885"} {
		if _, err := c.Cached(ctx, bucketed.OpRelated, s, compute); err != nil {
			t.Fatalf("prime %s: %v", s, err)
		}
	}
	if n := len(mr.Keys()); n != 3 {
		t.Fatalf("primed keys=%d want 3", n)
	}

	cons := kafkaconsumer.New(kafkaconsumer.Config{LogLevel: "error"}, nil, c)
	ev := invalidation.Event{Version: 1, Op: invalidation.OpUpdate, PlaceID: "149492", TS: time.Now().UTC(), Seq: 1}
	body, _ := json.Marshal(ev)
	if err := cons.ProcessOne(ctx, &sarama.ConsumerMessage{Topic: "t", Offset: 1, Value: body}); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if n := len(mr.Keys()); n != 1 {
		t.Fatalf("keys after invalidation=%v want only the untouched place", mr.Keys())
	}

	calls.Store(0)
	for _, s := range []string{"149492", "*", "579885"} {
		_, _ = c.Cached(ctx, bucketed.OpRelated, s, compute)
	}
	if calls.Load() != 2 {
		t.Fatalf("recomputes=%d want 2", calls.Load())
	}

	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `invalidations_total{op="update",outcome="applied"}`) {
		t.Fatalf("metrics missing invalidations_total; got:\n%s", rr.Body.String())
	}
}
