package redislock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/card-offer-notifier/internal/config"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "offerjob:lock:"

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock taken over by another runner is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only while it still holds our token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Locker serializes work on a key across processes.
type Locker interface {
	// Acquire returns ok=false when another holder owns key. release is
	// always safe to call.
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// RedisLocker takes per-key locks with SET NX PX. A held lock is refreshed
// every third of its TTL until released, so a slow key keeps its lock.
type RedisLocker struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewClient builds a Redis client from config and checks it with PING.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func New(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	token, err := newToken()
	if err != nil {
		return noop, false, err
	}
	k := keyPrefix + key
	ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
	if err != nil {
		return noop, false, fmt.Errorf("redis setnx %s: %w", k, err)
	}
	if !ok {
		return noop, false, nil
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(context.WithoutCancel(ctx), k, token, stop, done)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-done
			// Release must run even when the caller's context is done.
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, l.rdb, []string{k}, token).Err()
		})
	}
	return release, true, nil
}

func (l *RedisLocker) keepAlive(ctx context.Context, k, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rctx, cancel := context.WithTimeout(ctx, interval)
			n, err := refreshScript.Run(rctx, l.rdb, []string{k}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err == nil && n == 0 {
				// Lost to expiry or another holder; nothing left to refresh.
				return
			}
		}
	}
}

// Noop is used when Redis is not configured. Every Acquire succeeds.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (func(), bool, error) {
	return noop, true, nil
}

func noop() {}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
