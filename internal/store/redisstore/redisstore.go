package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

const denyPrefix = "deny:"

// DenyToken revokes a token until its natural expiry.
func (s *Store) DenyToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, denyPrefix+token, "1", ttl).Err()
}

func (s *Store) IsDenied(ctx context.Context, token string) (bool, error) {
	_, err := s.client.Get(ctx, denyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
