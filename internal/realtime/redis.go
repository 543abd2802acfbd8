package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"crwn/internal/cache"
	"crwn/internal/observability"

	"github.com/redis/go-redis/v9"
)

// RedisFeed routes changes over Redis pub/sub. Every change goes to the table
// channel and to one filtered channel per keyed column.
type RedisFeed struct {
	rdb *redis.Client
}

// NewRedisFeed creates a feed over rdb.
func NewRedisFeed(rdb *redis.Client) *RedisFeed {
	return &RedisFeed{rdb: rdb}
}

func (f *RedisFeed) Driver() string { return DriverRedis }

func (f *RedisFeed) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	pipe := f.rdb.Pipeline()
	pipe.Publish(ctx, cache.RealtimeChannel(change.Table), payload)
	for col, val := range change.keys {
		pipe.Publish(ctx, cache.RealtimeFilteredChannel(change.Table, col, val), payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %s change: %w", change.Table, err)
	}
	observability.RealtimeEventsPublished.WithLabelValues(change.Table, DriverRedis).Inc()
	return nil
}

func redisChannel(table string, filter Filter) string {
	if filter.IsZero() {
		return cache.RealtimeChannel(table)
	}
	return cache.RealtimeFilteredChannel(table, filter.Column, filter.Value)
}

func (f *RedisFeed) Subscribe(ctx context.Context, table string, filter Filter, handler Handler) (Subscription, error) {
	sub := f.rdb.Subscribe(ctx, redisChannel(table, filter))
	// Wait for the confirmation so publishes after Subscribe returns are seen.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}
	ch := sub.Channel()

	ctx, cancel := context.WithCancel(ctx)
	rs := &redisSub{cancel: cancel, sub: sub}

	go func() {
		defer func() { _ = rs.close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					observability.GlobalLogger.Warn("dropping malformed realtime payload",
						slog.String("channel", msg.Channel),
						slog.String("error", err.Error()),
					)
					continue
				}
				if !filter.Matches(c) {
					continue
				}
				deliver(table, handler, c)
			}
		}
	}()
	return rs, nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (f *RedisFeed) Close() error { return nil }

type redisSub struct {
	cancel context.CancelFunc
	sub    *redis.PubSub
	once   sync.Once
	err    error
}

func (s *redisSub) close() error {
	s.once.Do(func() { s.err = s.sub.Close() })
	return s.err
}

func (s *redisSub) Unsubscribe() error {
	s.cancel()
	return s.close()
}
