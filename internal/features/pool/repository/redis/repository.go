package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/features/pool/models"
	"prize-pool-backend/internal/features/pool/repository"
)

const lockRetryInterval = 25 * time.Millisecond

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the lock expiry out only while it still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type redisRepository struct {
	client   *redis.Client
	lockTTL  time.Duration
	lockWait time.Duration
}

type Option func(*redisRepository)

// WithLockTiming overrides how long the pool lock lives and how long
// Atomic waits for it.
func WithLockTiming(ttl, wait time.Duration) Option {
	return func(r *redisRepository) {
		r.lockTTL = ttl
		r.lockWait = wait
	}
}

func NewPoolRepository(client *redis.Client, opts ...Option) repository.PoolRepository {
	r := &redisRepository{
		client:   client,
		lockTTL:  repository.DefaultLockTTL,
		lockWait: repository.DefaultLockWait,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// acquireLock spins on SET NX until the lock is taken or the wait elapses.
func (r *redisRepository) acquireLock(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(r.lockWait)

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
		if err != nil {
			return "", fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", repository.ErrAlreadyLocked
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func (r *redisRepository) releaseLock(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
		logger.Error().Err(err).Str("lock", key).Msg("Failed to release pool lock")
	}
}

// keepLock renews the lock every third of its TTL until stop is called or
// the lock turns out to belong to someone else.
func (r *redisRepository) keepLock(key, token string) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		interval := r.lockTTL / 3
		if interval <= 0 {
			interval = time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				n, err := extendScript.Run(ctx, r.client, []string{key}, token, r.lockTTL.Milliseconds()).Int()
				cancel()
				if err != nil {
					logger.Warn().Err(err).Str("lock", key).Msg("Failed to extend pool lock")
					continue
				}
				if n == 0 {
					logger.Error().Str("lock", key).Msg("Pool lock lost while transaction was running")
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (r *redisRepository) Atomic(ctx context.Context, poolID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lockKey := repository.LockKey(poolID)
	token, err := r.acquireLock(ctx, lockKey)
	if err != nil {
		return err
	}
	defer r.releaseLock(lockKey, token)

	tx := newRedisTx(ctx, r.client, poolID)
	stop := r.keepLock(lockKey, token)
	err = fn(ctx, tx)
	stop()
	if err != nil {
		return err
	}

	if err := tx.commit(lockKey, token); err != nil {
		return fmt.Errorf("failed to commit pool %s: %w", poolID, err)
	}
	return nil
}

func (r *redisRepository) GetPool(ctx context.Context, poolID string) (*models.Pool, error) {
	return loadPool(ctx, r.client, poolID)
}

func (r *redisRepository) GetDeposit(ctx context.Context, poolID, owner string) (*models.DepositRecord, error) {
	return loadDeposit(ctx, r.client, poolID, owner)
}

func (r *redisRepository) ListDeposits(ctx context.Context, poolID string) ([]*models.DepositRecord, error) {
	owners, err := r.client.LRange(ctx, repository.DepositorsKey(poolID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list depositors: %w", err)
	}
	return loadDeposits(ctx, r.client, poolID, owners)
}

func (r *redisRepository) ListDraws(ctx context.Context, poolID string, limit int) ([]*models.Draw, error) {
	return listHistory[models.Draw](ctx, r.client, repository.DrawsKey(poolID), limit)
}

func (r *redisRepository) ListClaims(ctx context.Context, poolID string, limit int) ([]*models.Claim, error) {
	return listHistory[models.Claim](ctx, r.client, repository.ClaimsKey(poolID), limit)
}

func loadPool(ctx context.Context, client *redis.Client, poolID string) (*models.Pool, error) {
	data, err := client.Get(ctx, repository.PoolKey(poolID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}

	var pool models.Pool
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pool: %w", err)
	}
	return &pool, nil
}

func loadDeposit(ctx context.Context, client *redis.Client, poolID, owner string) (*models.DepositRecord, error) {
	data, err := client.Get(ctx, repository.DepositKey(poolID, owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}

	var rec models.DepositRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deposit: %w", err)
	}
	return &rec, nil
}

func loadDeposits(ctx context.Context, client *redis.Client, poolID string, owners []string) ([]*models.DepositRecord, error) {
	out := make([]*models.DepositRecord, 0, len(owners))
	if len(owners) == 0 {
		return out, nil
	}

	keys := make([]string, len(owners))
	for i, owner := range owners {
		keys[i] = repository.DepositKey(poolID, owner)
	}

	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get deposits: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			logger.Warn().Str("pool_id", poolID).Str("owner", owners[i]).Msg("Depositor listed without a record")
			continue
		}
		var rec models.DepositRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal deposit: %w", err)
		}
		out = append(out, &rec)
	}
	return out, nil
}

func listHistory[T any](ctx context.Context, client *redis.Client, key string, limit int) ([]*T, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	values, err := client.LRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", key, err)
	}

	out := make([]*T, 0, len(values))
	for _, v := range values {
		var item T
		if err := json.Unmarshal([]byte(v), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s entry: %w", key, err)
		}
		out = append(out, &item)
	}
	return out, nil
}
