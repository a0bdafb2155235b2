package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultRedisKey is the hash holding translations.
const DefaultRedisKey = "gorate:translations"

// Redis keeps translations in a single Redis hash so several hosts can share
// one cache.
type Redis struct {
	Client *redis.Client
	Key    string
	// Timeout bounds each round trip. Zero means two seconds.
	Timeout time.Duration
}

// NewRedis connects using a redis:// URL.
func NewRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{Client: redis.NewClient(opt), Key: DefaultRedisKey}, nil
}

func (c *Redis) key() string {
	if c.Key == "" {
		return DefaultRedisKey
	}
	return c.Key
}

func (c *Redis) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	d := c.Timeout
	if d <= 0 {
		d = 2 * time.Second
	}
	return context.WithTimeout(parent, d)
}

func (c *Redis) Get(ctx context.Context, source string) (string, bool) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	v, err := c.Client.HGet(ctx, c.key(), source).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("redis translation cache get failed")
		}
		return "", false
	}
	return v, true
}

func (c *Redis) Put(ctx context.Context, source, translated string) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	if err := c.Client.HSet(ctx, c.key(), source, translated).Err(); err != nil {
		log.Warn().Err(err).Msg("redis translation cache put failed")
	}
}

// Ping checks connectivity.
func (c *Redis) Ping(ctx context.Context) error {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	return c.Client.Ping(ctx).Err()
}

// Close releases the client.
func (c *Redis) Close() error { return c.Client.Close() }

// Clear drops the whole translation hash.
func (c *Redis) Clear(ctx context.Context) error {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	return c.Client.Del(ctx, c.key()).Err()
}
