// Package distlock provides a Redis-backed advisory lock guarding index
// rebuilds across replicas of the indexing pipeline, additive to (never
// instead of) the in-process per-index mutex in internal/registry: the
// in-process mutex is always sufficient and correct within one process;
// this lock only prevents two separate replicas from rebuilding the same
// index concurrently.
//
// Grounded on queue/redis/queue.go's MarkProcessing/IsProcessing
// (ZAdd/ZRem-based processing-set tracking) and
// db/repository/interfaces.go's CacheRepository.AcquireLock/IsLocked
// contract in the teacher codebase, adapted from job-processing tracking
// to a simple mutual-exclusion lock with TTL.
package distlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mu-semtech/delta-indexer/internal/errs"
)

// Locker is a distributed mutual-exclusion lock keyed by name.
type Locker struct {
	client *redis.Client
	prefix string
}

// New builds a Locker against redisURL (e.g. "redis://localhost:6379/0").
func New(redisURL, keyPrefix string) (*Locker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errs.NewConfigError("parsing redis URL", err)
	}
	if keyPrefix == "" {
		keyPrefix = "delta-indexer:rebuild-lock:"
	}
	return &Locker{client: redis.NewClient(opts), prefix: keyPrefix}, nil
}

// Close releases the underlying Redis connection.
func (l *Locker) Close() error { return l.client.Close() }

// TryLock attempts to acquire the advisory lock for name, expiring
// automatically after ttl if never released (protects against a crashed
// holder wedging a rebuild forever). Returns false, nil when another
// replica already holds it.
func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(name), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, errs.NewTransportError("acquiring rebuild lock", err)
	}
	return ok, nil
}

// Unlock releases the advisory lock for name.
func (l *Locker) Unlock(ctx context.Context, name string) error {
	if err := l.client.Del(ctx, l.key(name)).Err(); err != nil {
		return errs.NewTransportError("releasing rebuild lock", err)
	}
	return nil
}

// IsLocked reports whether name is currently held by any replica.
func (l *Locker) IsLocked(ctx context.Context, name string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(name)).Result()
	if err != nil {
		return false, errs.NewTransportError("checking rebuild lock", err)
	}
	return n > 0, nil
}

func (l *Locker) key(name string) string {
	return fmt.Sprintf("%s%s", l.prefix, name)
}
