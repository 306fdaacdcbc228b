package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes envelopes with PUBLISH so websocket servers in other
// processes can relay them.
type RedisSink struct {
	client *redis.Client
	addr   string
}

var _ Sink = (*RedisSink)(nil)

// NewRedisSink connects to Redis at addr and verifies the connection.
func NewRedisSink(ctx context.Context, addr, password string) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisSink{client: client, addr: addr}, nil
}

// Name implements Sink.
func (s *RedisSink) Name() string {
	return "redis"
}

// Deliver implements Sink.
func (s *RedisSink) Deliver(ctx context.Context, channel string, data []byte) error {
	if err := s.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
