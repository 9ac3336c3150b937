package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "lock:auto-schedule:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// TimetableLockRepository serialises scheduling runs per timetable.
// With a Redis client the lock spans instances; without one it is process local.
type TimetableLockRepository struct {
	client *redis.Client

	mu    sync.Mutex
	local map[string]localLock
}

type localLock struct {
	token     string
	expiresAt time.Time
}

// NewTimetableLockRepository constructs a lock repository. client may be nil.
func NewTimetableLockRepository(client *redis.Client) *TimetableLockRepository {
	return &TimetableLockRepository{client: client, local: make(map[string]localLock)}
}

// Acquire tries to take the lock for timetableID. It returns false when another holder owns it.
func (r *TimetableLockRepository) Acquire(ctx context.Context, timetableID, token string, ttl time.Duration) (bool, error) {
	key := lockKeyPrefix + timetableID
	if r.client != nil {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return false, fmt.Errorf("redis setnx %s: %w", key, err)
		}
		return ok, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if held, ok := r.local[key]; ok && now.Before(held.expiresAt) {
		return false, nil
	}
	r.local[key] = localLock{token: token, expiresAt: now.Add(ttl)}
	return true, nil
}

// Release drops the lock only if token still owns it.
func (r *TimetableLockRepository) Release(ctx context.Context, timetableID, token string) error {
	key := lockKeyPrefix + timetableID
	if r.client != nil {
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("redis release %s: %w", key, err)
		}
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if held, ok := r.local[key]; ok && held.token == token {
		delete(r.local, key)
	}
	return nil
}
