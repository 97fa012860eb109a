package cache

import (
	"context"
	"crypto/tls"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	fastererrors "github.com/go-faster/errors"

	"github.com/jordigilh/intentrouter/internal/config"
)

// RedisCache is the remote implementation: TLS-optional, bounded connect
// and per-command timeouts, a non-blocking offline queue (MaxRetries: 1,
// no command queuing while disconnected — operations fail fast),
// failures logged and treated as a miss/no-op.
type RedisCache struct {
	client *goredis.Client
	log *zap.Logger
}

// NewRedis connects to Redis per cfg. The returned error is non-nil only
// when the initial PING fails; callers are expected to fall back to
// MemoryCache on error.
func NewRedis(cfg config.CacheConfig, log *zap.Logger) (*RedisCache, error) {
	opts, err := resolveOptions(cfg)
	if err != nil {
		return nil, fastererrors.Wrap(err, "resolve redis options")
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fastererrors.Wrap(err, "ping redis")
	}

	return &RedisCache{client: client, log: log}, nil
}

func resolveOptions(cfg config.CacheConfig) (*goredis.Options, error) {
	if cfg.URL != "" {
		opts, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		applyTimeouts(opts, cfg)
		return opts, nil
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == "" {
		port = "6379"
	}

	opts := &goredis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port),
		Password: cfg.Password,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	applyTimeouts(opts, cfg)
	return opts, nil
}

func applyTimeouts(opts *goredis.Options, cfg config.CacheConfig) {
	opts.DialTimeout = cfg.ConnectTimeout
	opts.ReadTimeout = cfg.CommandTimeout
	opts.WriteTimeout = cfg.CommandTimeout
	opts.MaxRetries = 1
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("cache get failed, treating as miss", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (c *RedisCache) SetWithTTL(ctx context.Context, key, value string, ttlSeconds int) {
	if err := c.client.Set(ctx, key, value, secondsToDuration(ttlSeconds)).Err(); err != nil {
		c.log.Warn("cache set failed, treating as no-op", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
