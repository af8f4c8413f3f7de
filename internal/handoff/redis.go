package handoff

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(opt *redis.Options) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt)}
}

func (s *RedisStore) Put(ctx context.Context, key string, codes []string, ttl time.Duration) error {
	b, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, key, b, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]string, bool, error) {
	b, err := s.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var codes []string
	if err := json.Unmarshal(b, &codes); err != nil {
		return nil, false, err
	}
	return codes, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, key).Err()
}
