package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "storefront:verification:"

// consumeScript deletes the key only when the stored value matches and
// returns its remaining TTL in milliseconds, or -1 when nothing matched.
var consumeScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v and v == ARGV[1] then
  local ttl = redis.call('PTTL', KEYS[1])
  redis.call('DEL', KEYS[1])
  return ttl
end
return -1
`)

// RedisStore shares codes across server processes; Redis key expiry is the TTL.
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	generate func() (string, error)
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, generate: GenerateCode}
}

func redisKey(purpose Purpose, email string) string {
	return redisKeyPrefix + string(purpose) + ":" + email
}

func (s *RedisStore) Issue(ctx context.Context, purpose Purpose, email string) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, redisKey(purpose, email), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	return code, nil
}

func (s *RedisStore) Verify(ctx context.Context, purpose Purpose, email, code string) error {
	_, err := s.Consume(ctx, purpose, email, code)
	return err
}

func (s *RedisStore) Consume(ctx context.Context, purpose Purpose, email, code string) (time.Time, error) {
	ttl, err := consumeScript.Run(ctx, s.client, []string{redisKey(purpose, email)}, code).Int64()
	if err != nil {
		return time.Time{}, fmt.Errorf("consume verification code: %w", err)
	}
	if ttl <= 0 {
		return time.Time{}, ErrInvalidOrExpiredCode
	}
	return time.Now().Add(time.Duration(ttl) * time.Millisecond), nil
}

// Restore uses SET NX so a code issued after the consume wins.
func (s *RedisStore) Restore(ctx context.Context, purpose Purpose, email, code string, expiresAt time.Time) error {
	remaining := time.Until(expiresAt)
	if remaining < time.Millisecond {
		return nil
	}
	if err := s.client.SetNX(ctx, redisKey(purpose, email), code, remaining).Err(); err != nil {
		return fmt.Errorf("restore verification code: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, purpose Purpose, email string) error {
	if err := s.client.Del(ctx, redisKey(purpose, email)).Err(); err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}
