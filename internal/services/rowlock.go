package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RowLocker enforces one in-flight mutation per team row. Acquire fails
// with ErrRowBusy instead of waiting.
type RowLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// RowKey builds the lock key for a row of an idea's team view.
func RowKey(ideaID uuid.UUID, row string) string {
	return fmt.Sprintf("ideaforge:row:%s:%s", ideaID, row)
}

type MemoryRowLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryRowLocker() *MemoryRowLocker {
	return &MemoryRowLocker{held: make(map[string]struct{})}
}

func (l *MemoryRowLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, ErrRowBusy
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

// releaseScript deletes the key only while it still holds our token, so a
// lock that expired and was taken by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRowLocker shares row locks across API instances.
type RedisRowLocker struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisRowLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisRowLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisRowLocker{rdb: rdb, ttl: ttl}
}

func (l *RedisRowLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire row lock: %w", err)
	}
	if !ok {
		return nil, ErrRowBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
		})
	}, nil
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
