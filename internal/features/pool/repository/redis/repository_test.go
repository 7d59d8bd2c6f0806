package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prize-pool-backend/internal/features/pool/models"
	"prize-pool-backend/internal/features/pool/repository"
	"prize-pool-backend/internal/features/pool/repository/repotest"
)

func newClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.PoolRepository {
		client, _ := newClient(t)
		return NewPoolRepository(client)
	})
}

func TestAtomicReleasesLock(t *testing.T) {
	client, mr := newClient(t)
	repo := NewPoolRepository(client)

	err := repo.Atomic(context.Background(), "p", func(ctx context.Context, tx repository.Tx) error {
		assert.True(t, mr.Exists(repository.LockKey("p")))
		tx.PutPool(&models.Pool{ID: "p"})
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(repository.LockKey("p")))
}

func TestAtomicLockTimeout(t *testing.T) {
	client, mr := newClient(t)
	repo := NewPoolRepository(client, WithLockTiming(time.Minute, 50*time.Millisecond))

	require.NoError(t, mr.Set(repository.LockKey("p"), "someone-else"))

	err := repo.Atomic(context.Background(), "p", func(ctx context.Context, tx repository.Tx) error {
		return nil
	})
	assert.ErrorIs(t, err, repository.ErrAlreadyLocked)

	// a foreign lock is never released by us
	v, err := mr.Get(repository.LockKey("p"))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestAtomicSerializesWriters(t *testing.T) {
	client, _ := newClient(t)
	repo := NewPoolRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Atomic(ctx, "p", func(ctx context.Context, tx repository.Tx) error {
		tx.PutPool(&models.Pool{ID: "p"})
		return nil
	}))

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Atomic(ctx, "p", func(ctx context.Context, tx repository.Tx) error {
				pool, err := tx.Pool()
				if err != nil {
					return err
				}
				pool.TotalDeposited++
				tx.PutPool(pool)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	pool, err := repo.GetPool(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, uint64(workers), pool.TotalDeposited)
}

func TestAtomicAbortsWhenLockExpired(t *testing.T) {
	client, mr := newClient(t)
	repo := NewPoolRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Atomic(ctx, "p", func(ctx context.Context, tx repository.Tx) error {
		tx.PutPool(&models.Pool{ID: "p"})
		return nil
	}))

	err := repo.Atomic(ctx, "p", func(ctx context.Context, tx repository.Tx) error {
		pool, err := tx.Pool()
		require.NoError(t, err)

		// a transfer outlives the lock and another writer gets in
		mr.FastForward(repository.DefaultLockTTL + time.Second)
		require.NoError(t, repo.Atomic(ctx, "p", func(ctx context.Context, inner repository.Tx) error {
			p, err := inner.Pool()
			require.NoError(t, err)
			p.TotalDeposited += 7
			inner.PutPool(p)
			return nil
		}))

		pool.TotalDeposited += 5
		tx.PutPool(pool)
		return nil
	})
	require.ErrorIs(t, err, repository.ErrLockLost)

	pool, err := repo.GetPool(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), pool.TotalDeposited)
}

func TestAtomicAbortsWhenLockStolen(t *testing.T) {
	client, mr := newClient(t)
	repo := NewPoolRepository(client)

	err := repo.Atomic(context.Background(), "p", func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, mr.Set(repository.LockKey("p"), "someone-else"))
		tx.PutPool(&models.Pool{ID: "p"})
		return nil
	})
	require.ErrorIs(t, err, repository.ErrLockLost)
	assert.False(t, mr.Exists(repository.PoolKey("p")))

	v, err := mr.Get(repository.LockKey("p"))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestAtomicKeepsLockAlive(t *testing.T) {
	client, mr := newClient(t)
	repo := NewPoolRepository(client, WithLockTiming(300*time.Millisecond, time.Second))

	err := repo.Atomic(context.Background(), "p", func(ctx context.Context, tx repository.Tx) error {
		// miniredis expires keys only when told to; check the TTL was pushed out
		mr.SetTTL(repository.LockKey("p"), 10*time.Millisecond)
		require.Eventually(t, func() bool {
			return mr.TTL(repository.LockKey("p")) > 100*time.Millisecond
		}, time.Second, 10*time.Millisecond)
		tx.PutPool(&models.Pool{ID: "p"})
		return nil
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists(repository.PoolKey("p")))
}
