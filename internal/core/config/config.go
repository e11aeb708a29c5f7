package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type FlickrCfg struct {
	APIURL         string
	APIKey         string
	TagsBase       string
	PoolID         string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxRPS         float64
}

type CacheCfg struct {
	Backend     string
	BucketWidth time.Duration
	LRUSize     int
	OpTimeout   time.Duration
	Coalesce    bool
	RedisAddr   string
}

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr         string
	LogLevel     string
	LogConsole   bool
	LogSampleN   int
	Flickr       FlickrCfg
	Cache        CacheCfg
	Invalidation InvalidationCfg
	Metrics      MetricsCfg
}

// LoadDotEnv reads .env and .env.local into the process environment.
// Missing files are not an error; variables already set win.
func LoadDotEnv() {
	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

func FromEnv() Config {
	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),
		Flickr: FlickrCfg{
			APIURL:         getenv("FLICKR_API_URL", "https://api.flickr.com/services/rest/"),
			APIKey:         getenv("FLICKR_API_KEY", ""),
			TagsBase:       getenv("FLICKR_TAGS_BASE", "https://www.flickr.com/photos/tags/"),
			PoolID:         getenv("FLICKR_POOL_ID", "1876758@N22"),
			ConnectTimeout: getduration("FLICKR_CONNECT_TIMEOUT", 2*time.Second),
			ReadTimeout:    getduration("FLICKR_READ_TIMEOUT", 5*time.Second),
			MaxRPS:         getfloat("FLICKR_MAX_RPS", 0),
		},
		Cache: CacheCfg{
			Backend:     strings.ToLower(getenv("CACHE_BACKEND", "memory")),
			BucketWidth: getduration("CACHE_BUCKET_WIDTH", 2*time.Hour),
			LRUSize:     getint("CACHE_LRU_SIZE", 4096),
			OpTimeout:   getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			Coalesce:    getbool("CACHE_COALESCE", false),
			RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		},
		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "place-updates"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "flickr-portlet"),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", false),
			Addr:    getenv("METRICS_ADDR", ":9090"),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// non-positive durations fall back to the default
func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// SplitCSV splits "a, b,,c" into [a b c].
func SplitCSV(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
