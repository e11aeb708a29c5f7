package kafkaconsumer

import (
	"time"

	"github.com/pleiades/flickr-portlet/internal/core/config"
)

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
	DedupeSize          int
	LogLevel            string
}

func FromConfig(cfg config.Config) Config {
	return Config{
		Brokers:          config.SplitCSV(cfg.Invalidation.Brokers),
		Topic:            cfg.Invalidation.Topic,
		GroupID:          cfg.Invalidation.GroupID,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		// cached entries live one bucket, so older events have nothing to purge
		InitialOffsetOldest: false,
		DedupeSize:          8192,
		LogLevel:            cfg.LogLevel,
	}
}
