package kv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis stores values as plain strings under prefix+key, without expiry.
type Redis struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// OpenRedis connects using a redis:// URL and verifies the connection.
func OpenRedis(url, prefix string, timeout time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	opt.MaxRetries = 3

	r := NewRedis(redis.NewClient(opt), prefix, timeout)
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		_ = r.client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return r, nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string, timeout time.Duration) *Redis {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Redis{client: client, prefix: prefix, timeout: timeout}
}

func (r *Redis) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *Redis) Get(key string) (string, bool, error) {
	if r == nil || r.client == nil {
		return "", false, ErrNotConfigured
	}
	ctx, cancel := r.ctx()
	defer cancel()

	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "redis get %s", key)
	}
	return v, true, nil
}

func (r *Redis) Set(key, value string) error {
	if r == nil || r.client == nil {
		return ErrNotConfigured
	}
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
