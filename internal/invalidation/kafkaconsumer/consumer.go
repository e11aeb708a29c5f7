package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/pleiades/flickr-portlet/internal/core/model"
	obs "github.com/pleiades/flickr-portlet/internal/core/observability"
	"github.com/pleiades/flickr-portlet/internal/invalidation"
	mylog "github.com/pleiades/flickr-portlet/internal/logger"
)

// Forgetter drops cached results for a subject. *bucketed.Cache implements it.
type Forgetter interface {
	Forget(ctx context.Context, subject string) error
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	cache  Forgetter
	seen   *seqDedupe
	zlog   *zerolog.Logger
}

func New(cfg Config, logger *slog.Logger, c Forgetter) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	zl := mylog.Build(mylog.Config{Level: cfg.LogLevel, Component: "kafka_consumer"}, nil)
	base := mylog.WithComponent(context.Background(), "kafka_consumer")
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		cache:  c,
		seen:   newSeqDedupe(cfg.DedupeSize),
		zlog:   mylog.FromContext(base, &zl),
	}
}

// consumes invalidation events from kafka until ctx is done
func (c *Consumer) Start(ctx context.Context) error {
	if c.cache == nil {
		return errors.New("kafkaconsumer: missing cache")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("kafka invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				if ctx.Err() != nil {
					continue
				}
				c.zlog.Error().Err(err).
					Strs("brokers", c.cfg.Brokers).
					Str("topic", c.cfg.Topic).
					Msg("kafka consumer error")
				select {
				case <-ctx.Done():
				case <-time.After(2 * time.Second):
				}
			}
		}
	}
}

// ProcessOne applies one message. Malformed or stale events are skipped
// without error so they are committed; a failed purge returns an error so
// the message is redelivered.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		obs.IncInvalidation("unknown", "invalid")
		c.zlog.Warn().Err(err).
			Str("kind", "decode").
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("skipping undecodable invalidation event")
		return nil
	}
	if err := ev.Validate(); err != nil {
		obs.IncInvalidation(ev.Op, "invalid")
		c.zlog.Warn().Err(err).
			Str("kind", "validate").
			Int64("offset", msg.Offset).
			Msg("skipping invalid invalidation event")
		return nil
	}
	if c.seen.stale(ev.PlaceID, ev.Seq) {
		obs.IncInvalidation(ev.Op, "stale")
		c.logger.Debug("stale invalidation skipped", "place_id", ev.PlaceID, "seq", ev.Seq)
		return nil
	}

	ctx = mylog.WithSubject(ctx, ev.PlaceID)
	for _, s := range []string{ev.PlaceID, model.Wildcard.String()} {
		if err := c.cache.Forget(ctx, s); err != nil {
			obs.IncInvalidation(ev.Op, "error")
			mylog.FromContext(ctx, c.zlog).Error().Err(err).
				Str("kind", "forget").
				Str("topic", msg.Topic).
				Int32("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("kafka error")
			return fmt.Errorf("forget %s: %w", s, err)
		}
	}
	c.seen.applied(ev.PlaceID, ev.Seq)

	obs.IncInvalidation(ev.Op, "applied")
	mylog.FromContext(ctx, c.zlog).Info().
		Str("event", "invalidation").
		Str("op", ev.Op).
		Uint64("seq", ev.Seq).
		Msg("forgot cached results")
	return nil
}
