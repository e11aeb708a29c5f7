package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "FLICKR_POOL_ID", "CACHE_BUCKET_WIDTH", "CACHE_BACKEND", "FLICKR_CONNECT_TIMEOUT", "FLICKR_READ_TIMEOUT", "METRICS_ENABLED", "METRICS_ADDR", "METRICS_PATH"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()

	if cfg.Addr != ":8090" {
		t.Fatalf("addr=%q want :8090", cfg.Addr)
	}
	if cfg.Flickr.PoolID != "1876758@N22" {
		t.Fatalf("pool=%q", cfg.Flickr.PoolID)
	}
	if cfg.Cache.BucketWidth != 2*time.Hour {
		t.Fatalf("bucket width=%v want 2h", cfg.Cache.BucketWidth)
	}
	if cfg.Flickr.ConnectTimeout != 2*time.Second || cfg.Flickr.ReadTimeout != 5*time.Second {
		t.Fatalf("timeouts=%v/%v want 2s/5s", cfg.Flickr.ConnectTimeout, cfg.Flickr.ReadTimeout)
	}
	if cfg.Cache.Backend != "memory" {
		t.Fatalf("backend=%q want memory", cfg.Cache.Backend)
	}
	if cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9090" || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("metrics=%+v", cfg.Metrics)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("CACHE_BUCKET_WIDTH", "30m")
	t.Setenv("CACHE_COALESCE", "yes")
	t.Setenv("FLICKR_MAX_RPS", "0.5")
	t.Setenv("FLICKR_READ_TIMEOUT", "-1s")

	cfg := FromEnv()
	if cfg.Cache.Backend != "redis" {
		t.Fatalf("backend=%q want redis", cfg.Cache.Backend)
	}
	if cfg.Cache.BucketWidth != 30*time.Minute {
		t.Fatalf("bucket width=%v", cfg.Cache.BucketWidth)
	}
	if !cfg.Cache.Coalesce {
		t.Fatalf("coalesce=false want true")
	}
	if cfg.Flickr.MaxRPS != 0.5 {
		t.Fatalf("max rps=%v", cfg.Flickr.MaxRPS)
	}
	if cfg.Flickr.ReadTimeout != 5*time.Second {
		t.Fatalf("negative timeout should fall back, got %v", cfg.Flickr.ReadTimeout)
	}
}

func TestLoadDotEnv_DoesNotOverrideSetVars(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FLICKR_POOL_ID=from-file\nFLICKR_API_KEY=abc\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("FLICKR_POOL_ID", "from-env")
	t.Setenv("FLICKR_API_KEY", "")
	os.Unsetenv("FLICKR_API_KEY")

	LoadDotEnv()
	cfg := FromEnv()
	if cfg.Flickr.PoolID != "from-env" {
		t.Fatalf("pool=%q want from-env", cfg.Flickr.PoolID)
	}
	if cfg.Flickr.APIKey != "abc" {
		t.Fatalf("api key=%q want abc", cfg.Flickr.APIKey)
	}
}

func TestSplitCSV(t *testing.T) {
	got := SplitCSV(" a, b,,c ,")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
