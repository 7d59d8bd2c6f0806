package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prize-pool-backend/internal/features/pool/models"
	"prize-pool-backend/internal/features/pool/repository"
	"prize-pool-backend/internal/features/pool/repository/memory"
)

var errCommit = errors.New("EXECABORT connection reset")

// flakyRepo runs fn normally but drops the staged writes of the next
// `fails` successful callbacks, as a lost connection at EXEC would.
type flakyRepo struct {
	repository.PoolRepository
	mu    sync.Mutex
	fails int
	calls int
}

func newFlakyRepo() *flakyRepo {
	return &flakyRepo{PoolRepository: memory.NewPoolRepository()}
}

func (r *flakyRepo) failNext(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fails = n
}

func (r *flakyRepo) Atomic(ctx context.Context, poolID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	return r.PoolRepository.Atomic(ctx, poolID, func(ctx context.Context, tx repository.Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls++
		if r.fails > 0 {
			r.fails--
			return errCommit
		}
		return nil
	})
}

func newFlakyFixture(t *testing.T) (*fixture, *flakyRepo) {
	t.Helper()
	repo := newFlakyRepo()
	f := newFixtureWithRepo(t, models.VariantNative, repo)
	_, err := f.svc.Initialize(context.Background(), admin)
	require.NoError(t, err)
	return f, repo
}

func TestDepositRefundedWhenCommitFails(t *testing.T) {
	ctx := context.Background()
	f, repo := newFlakyFixture(t)

	repo.failNext(1)
	_, err := f.svc.Deposit(ctx, "alice", 100)
	require.ErrorIs(t, err, errCommit)
	assert.NotErrorIs(t, err, ErrUnreconciled)

	assert.Equal(t, uint64(100), f.mover.collected["alice"])
	assert.Equal(t, uint64(100), f.mover.refunded["alice"])

	pool, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Zero(t, pool.TotalDeposited)
	f.assertInvariants(t)
}

func TestDepositUnreconciledWhenRefundFails(t *testing.T) {
	f, repo := newFlakyFixture(t)
	f.mover.failRefund = errBoom

	repo.failNext(1)
	_, err := f.svc.Deposit(context.Background(), "alice", 100)
	require.ErrorIs(t, err, ErrUnreconciled)
	assert.ErrorIs(t, err, errCommit)
}

func TestWithdrawRecordedAfterCommitFailure(t *testing.T) {
	ctx := context.Background()
	f, repo := newFlakyFixture(t)
	f.deposit(t, "alice", 100)

	repo.failNext(1)
	receipt, err := f.svc.Withdraw(ctx, "alice", 40)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), receipt.Deposit.Amount)
	assert.Equal(t, uint64(40), f.mover.released["alice"], "released exactly once")

	rec, err := f.svc.GetDeposit(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(60), rec.Amount)
	f.assertInvariants(t)
}

func TestWithdrawUnreconciledWhenCommitKeepsFailing(t *testing.T) {
	ctx := context.Background()
	f, repo := newFlakyFixture(t)
	f.deposit(t, "alice", 100)

	repo.failNext(settleAttempts + 1)
	_, err := f.svc.Withdraw(ctx, "alice", 40)
	require.ErrorIs(t, err, ErrUnreconciled)
	assert.ErrorIs(t, err, errCommit)
	assert.Equal(t, uint64(40), f.mover.released["alice"])
}

func TestClaimRecordedAfterCommitFailure(t *testing.T) {
	ctx := context.Background()
	f, repo := newFlakyFixture(t)
	f.deposit(t, "a", 10)
	_, err := f.svc.SelectWinner(ctx, nil)
	require.NoError(t, err)

	repo.failNext(1)
	claim, err := f.svc.Claim(ctx, admin, "")
	require.NoError(t, err)
	assert.Equal(t, models.NativeRewardUnit, claim.Amount)
	require.Len(t, f.mover.payouts, 1)

	pool, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Zero(t, pool.RewardPool)

	claims, err := f.svc.ListClaims(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, claims, 1)

	_, err = f.svc.Claim(ctx, admin, "")
	assert.ErrorIs(t, err, ErrNoRewardToClaim)
	assert.Len(t, f.mover.payouts, 1)
}

// lockedRepo records whether a callback is running under the pool lock.
type lockedRepo struct {
	repository.PoolRepository
	inside atomic.Bool
}

func (r *lockedRepo) Atomic(ctx context.Context, poolID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	return r.PoolRepository.Atomic(ctx, poolID, func(ctx context.Context, tx repository.Tx) error {
		r.inside.Store(true)
		defer r.inside.Store(false)
		return fn(ctx, tx)
	})
}

type lockCheckingClock struct {
	fakeClock
	repo    *lockedRepo
	outside int
}

func (c *lockCheckingClock) Now(ctx context.Context) (Tick, error) {
	if !c.repo.inside.Load() {
		c.outside++
	}
	return c.fakeClock.Now(ctx)
}

func TestClockReadUnderPoolLock(t *testing.T) {
	ctx := context.Background()
	repo := &lockedRepo{PoolRepository: memory.NewPoolRepository()}
	clock := &lockCheckingClock{fakeClock: fakeClock{tick: Tick{UnixTime: baseTime}}, repo: repo}
	svc := NewPoolService(repo, newFakeMover(), clock, Settings{PoolID: testPoolID, Variant: models.VariantNative})

	_, err := svc.Initialize(ctx, admin)
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, "alice", 10)
	require.NoError(t, err)
	_, err = svc.SelectWinner(ctx, nil)
	require.NoError(t, err)

	assert.Zero(t, clock.outside)
}

func TestTimestampsNeverMoveBackwards(t *testing.T) {
	ctx := context.Background()
	f := newFixtureWithRepo(t, models.VariantNative, memory.NewPoolRepository())
	// no cooldown: only the clock orders draws
	f.svc.(*poolService).settings.Cooldown = 0
	_, err := f.svc.Initialize(ctx, admin)
	require.NoError(t, err)

	f.clock.advance(100)
	f.deposit(t, "alice", 10)
	_, err = f.svc.SelectWinner(ctx, nil)
	require.NoError(t, err)

	f.clock.advance(-50)
	f.deposit(t, "alice", 10)
	rec, err := f.svc.GetDeposit(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, baseTime+100, rec.DepositTime)

	_, err = f.svc.SelectWinner(ctx, nil)
	assert.ErrorIs(t, err, ErrVrf)

	pool, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Equal(t, baseTime+100, pool.LastRewardTime)
}
