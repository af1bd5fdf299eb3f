package locksvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/darasa/core"
)

const (
	keyPrefix     = "darasa:lock:"
	minRetryDelay = 10 * time.Millisecond
	maxRetryDelay = 250 * time.Millisecond
)

// release deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis serializes the holders of a key across processes sharing a redis server.
// A lock expires after its TTL, so a crashed holder cannot block a key forever.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	onErr  func(error)
}

var _ core.TryLocker = (*Redis)(nil)

// NewRedisClient connects to redis with short timeouts.
func NewRedisClient(conf core.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         conf.Address,
		Password:     conf.Password,
		DB:           conf.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

// NewRedis returns a Locker using `client`. `onErr` receives release failures; it may be nil.
func NewRedis(client *redis.Client, ttl time.Duration, onErr func(error)) *Redis {
	if onErr == nil {
		onErr = func(error) {}
	}
	return &Redis{client: client, ttl: ttl, onErr: onErr}
}

// TryLock takes the lock if it is free, without waiting.
func (r *Redis) TryLock(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.New().String()
	ok, err := r.client.SetNX(ctx, keyPrefix+key, token, r.ttl).Result()
	if err != nil {
		return nil, false, errors.Wrapf(err, "taking lock %s", key)
	}
	if !ok {
		return nil, false, nil
	}
	return r.unlockFunc(key, token), true, nil
}

// Lock retries with a growing delay until the key is free or `ctx` is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	delay := minRetryDelay
	for {
		unlock, ok, err := r.TryLock(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return unlock, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "waiting for lock %s", key)
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

func (r *Redis) unlockFunc(key, token string) func() {
	return func() {
		// the request context may be done already
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{keyPrefix + key}, token).Err(); err != nil {
			r.onErr(errors.Wrapf(err, "releasing lock %s", key))
		}
	}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}
