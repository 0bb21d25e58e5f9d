package content

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "nodespeak:cid:"

// RedisStore keeps resolved content in redis without expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, cid string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+cid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, cid string, data []byte) error {
	return s.client.Set(ctx, redisKeyPrefix+cid, data, 0).Err()
}
