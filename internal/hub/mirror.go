package hub

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"coinhub/internal/config"
)

const mirrorQueueSize = 1024

// RedisMirror republishes broadcast frames on a Redis channel so other
// processes can follow the economy without a websocket.
type RedisMirror struct {
	client  *redis.Client
	channel string
	queue   chan []byte
}

// NewRedisClient creates a client and checks connectivity.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("Redis client initialized")
	return client, nil
}

// NewRedisMirror creates a mirror publishing on channel.
func NewRedisMirror(client *redis.Client, channel string) *RedisMirror {
	return &RedisMirror{
		client:  client,
		channel: channel,
		queue:   make(chan []byte, mirrorQueueSize),
	}
}

// Publish queues a frame. Frames are dropped when the queue is full.
func (m *RedisMirror) Publish(frame []byte) {
	select {
	case m.queue <- frame:
	default:
		log.Warn().Str("channel", m.channel).Msg("Redis mirror queue full, dropping frame")
	}
}

// Run publishes queued frames until ctx is cancelled.
func (m *RedisMirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-m.queue:
			if err := m.client.Publish(ctx, m.channel, frame).Err(); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Str("channel", m.channel).Msg("Failed to publish to Redis")
			}
		}
	}
}
