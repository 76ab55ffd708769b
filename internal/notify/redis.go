package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "fieldgame:"

// RedisPublisher publishes messages on Redis so that every server instance
// relays them to its local subscribers.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Notify implements Notifier.
func (p *RedisPublisher) Notify(ctx context.Context, channel string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", msg.Type, err)
	}
	if err := p.rdb.Publish(ctx, redisPrefix+channel, data).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", channel, err)
	}
	return nil
}

// Relay forwards every message published through Redis to the local broker
// until ctx is cancelled.
func Relay(ctx context.Context, rdb *redis.Client, b *Broker) error {
	sub := rdb.PSubscribe(ctx, redisPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to notifications: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			b.Publish(strings.TrimPrefix(m.Channel, redisPrefix), []byte(m.Payload))
		}
	}
}

// RedisChecker reports whether Redis is reachable.
type RedisChecker struct {
	rdb *redis.Client
}

func NewRedisChecker(rdb *redis.Client) RedisChecker {
	return RedisChecker{rdb: rdb}
}

func (c RedisChecker) Check(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
