package bucketed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pleiades/flickr-portlet/internal/cache/memstore"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// start of a 2h bucket
var t0 = time.Unix(7200*236111, 0)

func newCache(t *testing.T, opts ...Option) (*Cache, *clock) {
	t.Helper()
	clk := &clock{t: t0}
	opts = append([]Option{WithClock(clk.now)}, opts...)
	return New(memstore.New(time.Hour), 2*time.Hour, nil, opts...), clk
}

func counting(body string, n *atomic.Int32) ComputeFunc {
	return func(context.Context) ([]byte, error) {
		n.Add(1)
		return []byte(body), nil
	}
}

func TestCached_SameBucketIsIdempotent(t *testing.T) {
	c, clk := newCache(t)
	ctx := context.Background()
	var calls atomic.Int32

	a, err := c.Cached(ctx, OpRelated, "149492", counting(`{"n":1}`, &calls))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	clk.advance(2*time.Hour - time.Second)
	b, err := c.Cached(ctx, OpRelated, "149492", counting(`{"n":2}`, &calls))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("same bucket returned %s then %s", a, b)
	}
	if calls.Load() != 1 {
		t.Fatalf("compute calls=%d want 1", calls.Load())
	}
}

func TestCached_NewBucketRecomputes(t *testing.T) {
	c, clk := newCache(t)
	ctx := context.Background()
	var calls atomic.Int32

	_, _ = c.Cached(ctx, OpRelated, "149492", counting(`{"n":1}`, &calls))
	clk.advance(2 * time.Hour)
	got, _ := c.Cached(ctx, OpRelated, "149492", counting(`{"n":2}`, &calls))

	if calls.Load() != 2 {
		t.Fatalf("compute calls=%d want 2", calls.Load())
	}
	if string(got) != `{"n":2}` {
		t.Fatalf("got=%s want fresh value", got)
	}
}

func TestCached_KeyIncludesOpAndSubject(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	var calls atomic.Int32

	_, _ = c.Cached(ctx, OpRelated, "1", counting("a", &calls))
	_, _ = c.Cached(ctx, OpPortrait, "1", counting("b", &calls))
	_, _ = c.Cached(ctx, OpRelated, "2", counting("c", &calls))
	_, _ = c.Cached(ctx, OpRelated, "*", counting("d", &calls))

	if calls.Load() != 4 {
		t.Fatalf("compute calls=%d want 4", calls.Load())
	}
}

func TestCached_FailureNotStored(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	boom := errors.New("upstream down")

	_, err := c.Cached(ctx, OpPortrait, "149492", func(context.Context) ([]byte, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}

	var calls atomic.Int32
	got, err := c.Cached(ctx, OpPortrait, "149492", counting(`ok`, &calls))
	if err != nil || string(got) != "ok" || calls.Load() != 1 {
		t.Fatalf("after failure: got=%s err=%v calls=%d; failure must not be cached", got, err, calls.Load())
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("get down")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("set down")
}

func (brokenStore) Del(context.Context, ...string) error { return errors.New("del down") }

func TestCached_StoreFailureDegradesToMiss(t *testing.T) {
	c := New(brokenStore{}, time.Hour, nil)
	var calls atomic.Int32

	for range 2 {
		got, err := c.Cached(context.Background(), OpRelated, "x", counting("v", &calls))
		if err != nil || string(got) != "v" {
			t.Fatalf("got=%s err=%v", got, err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("compute calls=%d want 2", calls.Load())
	}
	if err := c.Forget(context.Background(), "x"); err == nil {
		t.Fatalf("forget should surface store errors")
	}
}

func TestCached_CoalescingSharesOneCompute(t *testing.T) {
	c, _ := newCache(t, WithCoalescing())
	var calls atomic.Int32
	release := make(chan struct{})

	compute := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("v"), nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := c.Cached(context.Background(), OpRelated, "s", compute); err != nil || string(got) != "v" {
				t.Errorf("got=%s err=%v", got, err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("compute calls=%d want 1", calls.Load())
	}
}

func TestForget_DropsCurrentAndPreviousBucket(t *testing.T) {
	c, clk := newCache(t)
	ctx := context.Background()
	var calls atomic.Int32

	_, _ = c.Cached(ctx, OpRelated, "149492", counting("old", &calls))
	clk.advance(2 * time.Hour)
	_, _ = c.Cached(ctx, OpPortrait, "149492", counting("p", &calls))
	_, _ = c.Cached(ctx, OpRelated, "other", counting("o", &calls))

	if err := c.Forget(ctx, "149492"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	calls.Store(0)

	_, _ = c.Cached(ctx, OpPortrait, "149492", counting("p2", &calls))
	_, _ = c.Cached(ctx, OpRelated, "other", counting("o2", &calls))
	if calls.Load() != 1 {
		t.Fatalf("compute calls=%d want 1 (only the forgotten subject)", calls.Load())
	}
}

func TestNew_DefaultsWidth(t *testing.T) {
	c := New(memstore.New(0), 0, nil)
	if c.Width() != DefaultWidth {
		t.Fatalf("width=%v want %v", c.Width(), DefaultWidth)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
