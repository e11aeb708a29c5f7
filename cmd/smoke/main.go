// Command smoke checks the portlet's dependencies and can publish a place
// invalidation event.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/IBM/sarama"
	flag "github.com/spf13/pflag"

	"github.com/pleiades/flickr-portlet/internal/cache/redisstore"
	"github.com/pleiades/flickr-portlet/internal/core/config"
	"github.com/pleiades/flickr-portlet/internal/core/httpclient"
	"github.com/pleiades/flickr-portlet/internal/core/model"
	"github.com/pleiades/flickr-portlet/internal/flickr"
	"github.com/pleiades/flickr-portlet/internal/invalidation"
	"github.com/pleiades/flickr-portlet/internal/resolve"
)

func testRedis(ctx context.Context, cfg config.CacheCfg) error {
	fmt.Println("Redis test")
	rc, err := redisstore.New(ctx, cfg.RedisAddr, time.Second)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	if err := rc.Set(ctx, "smoke:hello", []byte("world"), 30*time.Second); err != nil {
		return err
	}
	val, ok, err := rc.Get(ctx, "smoke:hello")
	if err != nil {
		return err
	}
	fmt.Printf("redis GET smoke:hello: %q (found=%v)\n", val, ok)
	return rc.Del(ctx, "smoke:hello")
}

func testFlickr(ctx context.Context, cfg config.FlickrCfg, place string) error {
	fmt.Println("Flickr test")
	api, err := flickr.New(nil,
		httpclient.NewOutbound(cfg.ConnectTimeout, cfg.ReadTimeout),
		cfg.APIURL, cfg.APIKey)
	if err != nil {
		return err
	}
	raw, err := api.Call(ctx, flickr.SearchByMachineTag(resolve.RelatedTag(model.SubjectID(place))))
	if err != nil {
		return err
	}
	photos, err := flickr.DecodePhotos(raw)
	if err != nil {
		return err
	}
	fmt.Printf("flickr photos tagged for %s: %d\n", place, photos.Total.Int())
	return nil
}

func publishInvalidation(cfg config.InvalidationCfg, place string, seq uint64) error {
	fmt.Println("Kafka test")

	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Version = sarama.V3_6_0_0
	prod, err := sarama.NewSyncProducer(config.SplitCSV(cfg.Brokers), sc)
	if err != nil {
		return fmt.Errorf("producer create: %w", err)
	}
	defer func() { _ = prod.Close() }()

	ev := invalidation.Event{
		Version: 1,
		Op:      invalidation.OpUpdate,
		PlaceID: place,
		TS:      time.Now().UTC(),
		Seq:     seq,
		Source:  "smoke",
	}
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("event: %w", err)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	part, off, err := prod.SendMessage(&sarama.ProducerMessage{
		Topic: cfg.Topic,
		Key:   sarama.StringEncoder(place),
		Value: sarama.ByteEncoder(body),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	fmt.Printf("published invalidation for %s (partition=%d offset=%d)\n", place, part, off)
	return nil
}

func main() {
	place := flag.String("place", "149492", "place id to query and invalidate")
	seq := flag.Uint64("seq", uint64(time.Now().Unix()), "invalidation sequence number")
	skipKafka := flag.Bool("skip-kafka", false, "do not publish an invalidation event")
	flag.Parse()

	config.LoadDotEnv()
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := testRedis(ctx, cfg.Cache); err != nil {
		fmt.Println("Redis error:", err)
		os.Exit(1)
	}
	if err := testFlickr(ctx, cfg.Flickr, *place); err != nil {
		fmt.Println("Flickr error:", err)
		os.Exit(1)
	}
	if !*skipKafka {
		if err := publishInvalidation(cfg.Invalidation, *place, *seq); err != nil {
			fmt.Println("Kafka error:", err)
			os.Exit(1)
		}
	}
	fmt.Println("All tests completed")
}
