package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverLockRepository routes calls to the primary store and switches to the
// fallback after the first primary error. The primary is retried once per
// recoveryInterval.
type FailoverLockRepository struct {
	primary   domain.LockRepository
	fallback  domain.LockRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverLockRepository(primary, fallback domain.LockRepository, logger *zerolog.Logger) *FailoverLockRepository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverLockRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the call should go to the primary store.
func (r *FailoverLockRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverLockRepository) markDown(op string, err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Str("op", op).Msg("Primary lock repository failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverLockRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary lock repository recovered")
	}
}

func (r *FailoverLockRepository) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if r.usePrimary() {
		token, ok, err := r.primary.AcquireLock(ctx, key, ttl)
		if err == nil {
			r.markUp()
			return token, ok, nil
		}
		r.markDown("acquire_lock", err)
	}

	return r.fallback.AcquireLock(ctx, key, ttl)
}

// ReleaseLock releases on both stores so a lock taken before a switch is not
// leaked. Tokens are unique, so the store that did not issue it keeps its lock.
func (r *FailoverLockRepository) ReleaseLock(ctx context.Context, key, token string) error {
	if !r.isDown.Load() {
		if err := r.primary.ReleaseLock(ctx, key, token); err != nil {
			r.markDown("release_lock", err)
		}
	}

	return r.fallback.ReleaseLock(ctx, key, token)
}

func (r *FailoverLockRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown("rate_limit", err)
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
