package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes check-and-write sequences on a shared key. The engine
// keys locks by teacher id so writers for different teachers never contend.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// keyPrefix namespaces lock keys in a Redis shared with other services.
// The engine passes "teacher:<id>" keys, so the full key is
// "halaqa:lock:teacher:<id>".
const keyPrefix = "halaqa:lock:"

// unlockScript deletes the key only while this process still holds it.
// Without the value check, a holder that overran the TTL would delete the
// lock a peer replica has since acquired.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock is a cross-replica Locker on a single SETNX key per teacher.
// The TTL bounds how long a crashed holder blocks its teacher; callers
// take it from config (scheduling.lock_ttl, 10s by default).
type RedisLock struct {
	client *redis.Client
	holder string
}

func NewRedisLock(redisAddr string) (*RedisLock, error) {
	const op = "lock.NewRedisLock"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisLock{
		client: client,
		holder: uuid.NewString(),
	}, nil
}

func (r *RedisLock) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	const op = "lock.RedisLock.Lock"

	taken, err := r.client.SetNX(ctx, keyPrefix+key, r.holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return taken, nil
}

func (r *RedisLock) Unlock(ctx context.Context, key string) error {
	const op = "lock.RedisLock.Unlock"

	if err := unlockScript.Run(ctx, r.client, []string{keyPrefix + key}, r.holder).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisLock) Close() error {
	return r.client.Close()
}
