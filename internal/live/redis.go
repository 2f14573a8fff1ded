package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "booking:changes"

// RedisRelay shares events between server instances over Redis pub/sub.
// While Run is subscribed, Publish goes to Redis only and Run feeds what
// arrives, including our own messages, into the local hub. Otherwise
// Publish delivers to the local hub directly.
type RedisRelay struct {
	rdb        redis.UniversalClient
	channel    string
	hub        *Hub
	log        *zap.Logger
	subscribed atomic.Bool
}

func NewRedisRelay(rdb redis.UniversalClient, channel string, hub *Hub, log *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{rdb: rdb, channel: channel, hub: hub, log: log}
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (r *RedisRelay) Publish(ctx context.Context, e Event) error {
	if !r.subscribed.Load() {
		r.hub.Broadcast(e)
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, r.channel, data).Err(); err != nil {
		r.hub.Broadcast(e)
		return fmt.Errorf("relay publish, delivered locally: %w", err)
	}
	return nil
}

// Subscribed reports whether Run is receiving from Redis.
func (r *RedisRelay) Subscribed() bool { return r.subscribed.Load() }

// Run blocks until ctx ends.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.subscribed.Store(true)
	defer r.subscribed.Store(false)
	r.log.Info("relay subscribed", zap.String("channel", r.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				r.log.Warn("bad relay payload", zap.Error(err))
				continue
			}
			r.hub.Broadcast(e)
		}
	}
}
