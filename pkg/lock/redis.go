package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock could not be taken before the deadline
var ErrNotAcquired = errors.New("lock: not acquired")

// releaseScript deletes the key only when it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared between service replicas
type RedisLocker struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	maxWait time.Duration
}

// NewRedisLocker creates a redis backed locker. ttl bounds how long a crashed
// holder can keep the key.
func NewRedisLocker(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		maxWait: ttl,
	}
}

// Lock polls SETNX with exponential backoff until acquired
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	name := r.prefix + key
	token := uuid.New().String()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = r.maxWait

	op := func() error {
		ok, err := r.client.SetNX(ctx, name, token, r.ttl).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("lock %s: %w", name, err))
		}
		if !ok {
			return ErrNotAcquired
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}

	return func() {
		// a fresh context so release still happens after the caller's ctx is cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, r.client, []string{name}, token).Err()
	}, nil
}
