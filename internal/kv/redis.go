package kv

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "buddy:"

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// без TTL: профиль и словарь живут бессрочно
func (s *redisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func (s *redisStore) key(k string) string {
	return redisKeyPrefix + k
}
