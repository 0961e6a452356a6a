package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLockRepository keeps locks and rate limit counters in process memory.
// It serializes callers of a single process only.
type MemoryLockRepository struct {
	mu         sync.Mutex
	locks      map[string]memoryLock
	rateLimits sync.Map
	now        func() time.Time
}

func NewMemoryLockRepository() *MemoryLockRepository {
	return &MemoryLockRepository{
		locks: make(map[string]memoryLock),
		now:   time.Now,
	}
}

type memoryLock struct {
	token     string
	expiresAt time.Time
}

func (r *MemoryLockRepository) AcquireLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if held, ok := r.locks[key]; ok && now.Before(held.expiresAt) {
		return "", false, nil
	}
	token := uuid.NewString()
	r.locks[key] = memoryLock{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (r *MemoryLockRepository) ReleaseLock(_ context.Context, key, token string) error {
	r.mu.Lock()
	if held, ok := r.locks[key]; ok && held.token == token {
		delete(r.locks, key)
	}
	r.mu.Unlock()
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemoryLockRepository) CheckRateLimit(_ context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := r.now()
	val, _ := r.rateLimits.LoadOrStore(userID, &rateLimitEntry{})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.count == 0 || !now.Before(entry.expiresAt) {
		entry.count = 1
		entry.expiresAt = now.Add(window)
	} else {
		entry.count++
	}

	return entry.count <= limit, nil
}
