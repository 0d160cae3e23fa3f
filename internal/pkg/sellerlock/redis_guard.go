package sellerlock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "offer-engine:seller-lock:"
	defaultRetry     = 25 * time.Millisecond
)

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisGuard держит блокировку продавца между экземплярами сервиса.
// Ключ живёт не дольше ttl на случай падения владельца.
type RedisGuard struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

func NewRedisGuard(client redis.UniversalClient, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		client: client,
		ttl:    ttl,
		retry:  defaultRetry,
		prefix: defaultKeyPrefix,
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	redisKey := g.prefix + key
	token := uuid.NewString()

	for {
		ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func(ctx context.Context) error {
				return unlockScript.Run(ctx, g.client, []string{redisKey}, token).Err()
			}, nil
		}

		timer := time.NewTimer(g.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
