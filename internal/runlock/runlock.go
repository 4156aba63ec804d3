// Package runlock keeps two triggers of the same job from running at once.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("job is already running")

// Release gives the lock back. It is safe to call after the lock expired.
type Release func(ctx context.Context) error

type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (Release, error)
}

// RedisLocker holds locks as keys set with NX and a TTL; release deletes the key only
// while it still carries the holder's token.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, prefix: "newsdigest:lock:"}
}

// NewRedisLockerWithURL parses a redis:// URL.
func NewRedisLockerWithURL(url string) (*RedisLocker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisLocker(redis.NewClient(opts)), nil
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Release, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	key := l.prefix + name

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", name, err)
		}
		return nil
	}, nil
}

func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// LocalLocker is an in-process lock for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]string
	clock func() time.Time
	until map[string]time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held:  make(map[string]string),
		until: make(map[string]time.Time),
		clock: time.Now,
	}
}

func (l *LocalLocker) Acquire(_ context.Context, name string, ttl time.Duration) (Release, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[name]; ok && l.clock().Before(l.until[name]) {
		return nil, ErrLocked
	}
	l.held[name] = token
	l.until[name] = l.clock().Add(ttl)

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[name] == token {
			delete(l.held, name)
			delete(l.until, name)
		}
		return nil
	}, nil
}

func newToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return id.String(), nil
}
