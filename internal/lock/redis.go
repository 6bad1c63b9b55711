package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotHeld is reported when a release finds the lease expired or taken over.
var ErrNotHeld = errors.New("lock no longer held")

// releaseScript deletes the key only when it still carries our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// RedisLocker is a Locker backed by SET NX PX with token-checked release.
type RedisLocker struct {
	client redis.Cmdable
	logger *zap.Logger
	prefix string
	ttl    time.Duration
	wait   time.Duration
	token  func() string
}

// RedisOption customizes a RedisLocker.
type RedisOption func(*RedisLocker)

// WithTokenSource overrides how lease tokens are generated.
func WithTokenSource(fn func() string) RedisOption {
	return func(l *RedisLocker) { l.token = fn }
}

// NewRedisLocker builds a RedisLocker. ttl bounds how long a crashed holder blocks others.
func NewRedisLocker(client redis.Cmdable, logger *zap.Logger, prefix string, ttl, wait time.Duration, opts ...RedisOption) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if wait <= 0 {
		wait = 25 * time.Millisecond
	}
	l := &RedisLocker{
		client: client,
		logger: logger,
		prefix: prefix,
		ttl:    ttl,
		wait:   wait,
		token:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock polls until the key is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	name := l.prefix + key
	token := l.token()

	for {
		ok, err := l.client.SetNX(ctx, name, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", name, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(l.wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := l.release(context.Background(), name, token); err != nil {
				l.logger.Warn("lock release failed", zap.String("key", name), zap.Error(err))
			}
		})
	}, nil
}

func (l *RedisLocker) release(ctx context.Context, name, token string) error {
	deleted, err := l.client.Eval(ctx, releaseScript, []string{name}, token).Int64()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}
