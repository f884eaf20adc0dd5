package lease

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript pushes the expiry forward only if the key still holds the caller's token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker keeps leases in Redis so they hold across instances.
// Leases taken through one RedisLocker are also serialized in process, and every
// held lease is renewed every ttl/3 until Release.
type RedisLocker struct {
	client redis.UniversalClient
	local  *LocalLocker
	ttl    time.Duration
	wait   time.Duration
	logger *slog.Logger
}

// NewRedisLocker creates a Locker whose leases live in Redis and expire after ttl unless renewed.
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		local:  NewLocalLocker(wait),
		ttl:    ttl,
		wait:   wait,
		logger: slog.Default().With("component", "lease"),
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, userID int64) (Lease, error) {
	deadline := time.Now().Add(l.wait)
	guard, err := l.local.acquire(ctx, userID, l.wait)
	if err != nil {
		return nil, err
	}

	key := leaseKey(userID)
	token := uuid.NewString()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 200 * time.Millisecond

	_, err = backoff.Retry(ctx, func() (bool, error) {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return false, backoff.Permanent(fmt.Errorf("redis set lease failed: %w", err))
		}
		if !ok {
			return false, errHeld
		}
		return true, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxElapsedTime(max(time.Until(deadline), time.Millisecond)))
	if err != nil {
		_ = guard.Release(ctx)
		if errors.Is(err, errHeld) {
			return nil, shoperrors.ErrCheckoutInProgress
		}
		return nil, err
	}

	r := &redisLease{
		client: l.client,
		guard:  guard,
		key:    key,
		token:  token,
		ttl:    l.ttl,
		lost:   make(chan struct{}),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: l.logger,
	}
	go r.keepAlive()
	return r, nil
}

type redisLease struct {
	client redis.UniversalClient
	guard  *localLease
	key    string
	token  string
	ttl    time.Duration
	logger *slog.Logger

	lost     chan struct{}
	lostOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func (r *redisLease) Lost() <-chan struct{} { return r.lost }

// keepAlive renews the key until Release. The lease is lost when the key no longer
// holds our token, or when no renewal succeeded for a whole ttl.
func (r *redisLease) keepAlive() {
	defer close(r.done)
	ticker := time.NewTicker(max(r.ttl/3, time.Millisecond))
	defer ticker.Stop()
	renewed := time.Now()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3+time.Millisecond)
		n, err := renewScript.Run(ctx, r.client, []string{r.key}, r.token, r.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err == nil && n == 1:
			renewed = time.Now()
		case err == nil:
			r.markLost("lease taken over or expired")
			return
		case time.Since(renewed) >= r.ttl:
			r.markLost("lease not renewed within ttl")
			return
		default:
			r.logger.Warn("Failed to renew lease", "key", r.key, "error", err)
		}
	}
}

func (r *redisLease) markLost(reason string) {
	r.lostOnce.Do(func() {
		r.logger.Warn("Lease lost", "key", r.key, "reason", reason)
		close(r.lost)
	})
}

func (r *redisLease) Release(ctx context.Context) error {
	var err error
	r.once.Do(func() {
		close(r.stop)
		<-r.done
		if runErr := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Err(); runErr != nil {
			err = fmt.Errorf("redis release lease failed: %w", runErr)
		}
		_ = r.guard.Release(ctx)
	})
	return err
}

func leaseKey(userID int64) string {
	return "lease:" + strconv.FormatInt(userID, 10)
}
