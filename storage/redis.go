package storage

import (
	"context"
	"time"

	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "academy:session:"

// Redis keeps blobs in Redis so several storefront instances share sessions.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store. A zero ttl keeps blobs until deleted.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	blob, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, errors.ErrBlobNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[Redis.Load] get %s", key)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, r.key(key), r.ttl).Err(); err != nil {
			return nil, errors.Wrapf(err, "[Redis.Load] touch %s", key)
		}
	}
	return blob, nil
}

func (r *Redis) Save(ctx context.Context, key string, blob []byte) error {
	if err := r.client.Set(ctx, r.key(key), blob, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "[Redis.Save] set %s", key)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return errors.Wrapf(err, "[Redis.Delete] del %s", key)
	}
	return nil
}

// Ping checks the connection, for health endpoints.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
