package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps each collection under <prefix><collection>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to addr and pings it once.
func NewRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kv: redis ping %s: %w", addr, err)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (r *RedisStore) Get(ctx context.Context, collection string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+collection).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (r *RedisStore) Put(ctx context.Context, collection string, data []byte) error {
	return r.client.Set(ctx, r.prefix+collection, data, 0).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
