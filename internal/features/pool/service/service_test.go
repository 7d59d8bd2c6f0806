package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prize-pool-backend/internal/features/pool/models"
	"prize-pool-backend/internal/features/pool/repository"
	"prize-pool-backend/internal/features/pool/repository/memory"
	"prize-pool-backend/internal/features/pool/vrf"
)

const (
	testPoolID = "sol_pool_vrf"
	admin      = "admin"
	// 31*t + 720 ends in 55 for this t, see TestSelectWinnerWeightedTarget
	baseTime = int64(1_700_000_085)
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu   sync.Mutex
	tick Tick
}

func (c *fakeClock) Now(context.Context) (Tick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick, nil
}

func (c *fakeClock) advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick.UnixTime += seconds
}

type payout struct {
	admin, winner string
	amount        uint64
}

type fakeMover struct {
	mu          sync.Mutex
	collected   map[string]uint64
	released    map[string]uint64
	refunded    map[string]uint64
	payouts     []payout
	failCollect error
	failRelease error
	failPayout  error
	failRefund  error
}

func newFakeMover() *fakeMover {
	return &fakeMover{collected: map[string]uint64{}, released: map[string]uint64{}, refunded: map[string]uint64{}}
}

func (m *fakeMover) Collect(_ context.Context, participant string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCollect != nil {
		return m.failCollect
	}
	m.collected[participant] += amount
	return nil
}

func (m *fakeMover) Release(_ context.Context, participant string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRelease != nil {
		return m.failRelease
	}
	m.released[participant] += amount
	return nil
}

func (m *fakeMover) Payout(_ context.Context, admin, winner string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPayout != nil {
		return m.failPayout
	}
	m.payouts = append(m.payouts, payout{admin: admin, winner: winner, amount: amount})
	return nil
}

func (m *fakeMover) Refund(_ context.Context, participant string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRefund != nil {
		return m.failRefund
	}
	m.refunded[participant] += amount
	return nil
}

type fixture struct {
	svc   PoolService
	clock *fakeClock
	mover *fakeMover
}

func newFixture(t *testing.T, variant models.Variant) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, variant, memory.NewPoolRepository())
}

func newFixtureWithRepo(t *testing.T, variant models.Variant, repo repository.PoolRepository) *fixture {
	t.Helper()
	clock := &fakeClock{tick: Tick{UnixTime: baseTime}}
	mover := newFakeMover()
	svc := NewPoolService(repo, mover, clock, Settings{
		PoolID:   testPoolID,
		Variant:  variant,
		Cooldown: 60 * time.Second,
	})
	return &fixture{svc: svc, clock: clock, mover: mover}
}

func newInitialized(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, models.VariantNative)
	_, err := f.svc.Initialize(context.Background(), admin)
	require.NoError(t, err)
	return f
}

func (f *fixture) deposit(t *testing.T, who string, amount uint64) {
	t.Helper()
	_, err := f.svc.Deposit(context.Background(), who, amount)
	require.NoError(t, err)
}

// assertInvariants checks that pool aggregates match the deposit records.
func (f *fixture) assertInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	pool, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	deposits, err := f.svc.ListDeposits(ctx)
	require.NoError(t, err)

	var sum uint64
	var live uint32
	for _, d := range deposits {
		sum += d.Amount
		if d.Amount > 0 {
			live++
		}
	}
	assert.Equal(t, sum, pool.TotalDeposited, "total_deposited")
	assert.Equal(t, live, pool.TotalDepositors, "total_depositors")
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.VariantStable)

	pool, err := f.svc.Initialize(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, testPoolID, pool.ID)
	assert.Equal(t, admin, pool.Admin)
	assert.Equal(t, models.CurrentVersion, pool.Version)
	assert.Equal(t, models.VariantStable, pool.Variant)
	assert.Zero(t, pool.TotalDeposited)
	assert.Zero(t, pool.LastRewardTime)

	f.deposit(t, "alice", 500)

	again, err := f.svc.Initialize(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), again.TotalDeposited, "re-initialize must keep totals")
	assert.Equal(t, uint32(1), again.TotalDepositors)

	_, err = f.svc.Initialize(ctx, "mallory")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Initialize(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidParticipant)
}

func TestOperationsRequireInitializedPool(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.VariantNative)

	_, err := f.svc.Deposit(ctx, "alice", 1)
	assert.ErrorIs(t, err, ErrPoolNotInitialized)
	_, err = f.svc.Withdraw(ctx, "alice", 1)
	assert.ErrorIs(t, err, ErrPoolNotInitialized)
	_, err = f.svc.SelectWinner(ctx, nil)
	assert.ErrorIs(t, err, ErrPoolNotInitialized)
	_, err = f.svc.Claim(ctx, admin, "alice")
	assert.ErrorIs(t, err, ErrPoolNotInitialized)
	_, err = f.svc.GetPool(ctx)
	assert.ErrorIs(t, err, ErrPoolNotInitialized)

	assert.Empty(t, f.mover.collected)
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)

	receipt, err := f.svc.Deposit(ctx, "alice", 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), receipt.Deposit.Amount)
	assert.Equal(t, baseTime, receipt.Deposit.DepositTime)
	assert.Equal(t, uint64(100), receipt.Pool.TotalDeposited)
	assert.Equal(t, uint32(1), receipt.Pool.TotalDepositors)

	f.clock.advance(5)
	receipt, err = f.svc.Deposit(ctx, "alice", 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), receipt.Deposit.Amount)
	assert.Equal(t, baseTime+5, receipt.Deposit.DepositTime)
	assert.Equal(t, uint32(1), receipt.Pool.TotalDepositors, "repeat deposit is not a new depositor")

	f.deposit(t, "bob", 7)
	assert.Equal(t, uint64(150), f.mover.collected["alice"])
	assert.Equal(t, uint64(7), f.mover.collected["bob"])
	f.assertInvariants(t)
}

func TestDepositRejectsZeroAmount(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)

	_, err := f.svc.Deposit(ctx, "alice", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, f.mover.collected)

	_, err = f.svc.Deposit(ctx, "", 10)
	assert.ErrorIs(t, err, ErrInvalidParticipant)
}

func TestDepositTransferFailureChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.mover.failCollect = errBoom

	_, err := f.svc.Deposit(ctx, "alice", 10)
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.ErrorIs(t, err, errBoom)

	pool, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Zero(t, pool.TotalDeposited)
	assert.Zero(t, pool.TotalDepositors)

	rec, err := f.svc.GetDeposit(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, rec.Amount)
}

func TestDepositOverflow(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.deposit(t, "alice", ^uint64(0))

	_, err := f.svc.Deposit(ctx, "bob", 1)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
	f.assertInvariants(t)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.deposit(t, "alice", 100)
	f.deposit(t, "bob", 40)

	receipt, err := f.svc.Withdraw(ctx, "alice", 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), receipt.Deposit.Amount)
	assert.Equal(t, uint64(110), receipt.Pool.TotalDeposited)
	assert.Equal(t, uint32(2), receipt.Pool.TotalDepositors)

	receipt, err = f.svc.Withdraw(ctx, "alice", 70)
	require.NoError(t, err)
	assert.Zero(t, receipt.Deposit.Amount)
	assert.Equal(t, uint32(1), receipt.Pool.TotalDepositors)
	assert.Equal(t, uint64(100), f.mover.released["alice"])
	f.assertInvariants(t)

	// the emptied record is kept and reused
	deposits, err := f.svc.ListDeposits(ctx)
	require.NoError(t, err)
	require.Len(t, deposits, 2)
	assert.Equal(t, "alice", deposits[0].Owner)

	receipt, err = f.svc.Deposit(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), receipt.Pool.TotalDepositors)
	f.assertInvariants(t)
}

func TestWithdrawRejects(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.deposit(t, "alice", 10)

	_, err := f.svc.Withdraw(ctx, "alice", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.svc.Withdraw(ctx, "alice", 11)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = f.svc.Withdraw(ctx, "nobody", 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	f.mover.failRelease = errBoom
	_, err = f.svc.Withdraw(ctx, "alice", 10)
	assert.ErrorIs(t, err, ErrTransferFailed)

	rec, err := f.svc.GetDeposit(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), rec.Amount)
	assert.Empty(t, f.mover.released)
	f.assertInvariants(t)
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.deposit(t, "bob", 3)

	before, err := f.svc.GetPool(ctx)
	require.NoError(t, err)

	f.deposit(t, "alice", 123)
	_, err = f.svc.Withdraw(ctx, "alice", 123)
	require.NoError(t, err)

	after, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.TotalDeposited, after.TotalDeposited)
	assert.Equal(t, before.TotalDepositors, after.TotalDepositors)
}

func TestSelectWinnerWeightedTarget(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.deposit(t, "a", 10)
	f.deposit(t, "b", 20)
	f.deposit(t, "c", 30)
	f.deposit(t, "d", 40)

	draw, err := f.svc.SelectWinner(ctx, nil)
	require.NoError(t, err)

	wantSeed := vrf.Mix(vrf.Entropy{UnixTime: baseTime, TotalDeposited: 100, TotalDepositors: 4})
	assert.Equal(t, wantSeed, draw.Seed)
	assert.Equal(t, uint64(55), draw.Target)
	assert.Equal(t, "c", draw.Winner)
	assert.Equal(t, 2, draw.WinnerIndex)
	assert.Equal(t, uint64(100), draw.TotalWeight)
	assert.Equal(t, models.NativeRewardUnit, draw.RewardPool)

	pool, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.NativeRewardUnit, pool.RewardPool)
	assert.Equal(t, baseTime, pool.LastRewardTime)
	assert.Equal(t, "c", pool.LastWinner)

	draws, err := f.svc.ListDraws(ctx, 10)
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, draw.ID, draws[0].ID)
}

func TestSelectWinnerDeterministic(t *testing.T) {
	run := func() string {
		f := newInitialized(t)
		f.deposit(t, "a", 17)
		f.deposit(t, "b", 4)
		f.deposit(t, "c", 99)
		draw, err := f.svc.SelectWinner(context.Background(), nil)
		require.NoError(t, err)
		return draw.Winner
	}
	assert.Equal(t, run(), run())
}

func TestSelectWinnerCooldown(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.deposit(t, "a", 10)

	_, err := f.svc.SelectWinner(ctx, nil)
	require.NoError(t, err)

	f.clock.advance(59)
	_, err = f.svc.SelectWinner(ctx, nil)
	assert.ErrorIs(t, err, ErrVrf)

	pool, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.NativeRewardUnit, pool.RewardPool, "rejected draw must not add reward")

	f.clock.advance(1)
	_, err = f.svc.SelectWinner(ctx, nil)
	require.NoError(t, err)

	pool, err = f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2*models.NativeRewardUnit, pool.RewardPool)
	assert.Equal(t, baseTime+60, pool.LastRewardTime)
}

func TestSelectWinnerStableRewardUnit(t *testing.T) {
	f := newFixture(t, models.VariantStable)
	_, err := f.svc.Initialize(context.Background(), admin)
	require.NoError(t, err)
	f.deposit(t, "a", 1)

	draw, err := f.svc.SelectWinner(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StableRewardUnit, draw.Reward)
}

func TestSelectWinnerNoDepositors(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)

	_, err := f.svc.SelectWinner(ctx, nil)
	assert.ErrorIs(t, err, ErrNoDepositors)

	f.deposit(t, "a", 10)
	_, err = f.svc.Withdraw(ctx, "a", 10)
	require.NoError(t, err)

	_, err = f.svc.SelectWinner(ctx, nil)
	assert.ErrorIs(t, err, ErrNoDepositors)
}

func TestSelectWinnerEmptyLiveSet(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.deposit(t, "a", 10)
	f.deposit(t, "b", 10)
	_, err := f.svc.Withdraw(ctx, "a", 10)
	require.NoError(t, err)

	// counter says one depositor, but the requested set holds none
	_, err = f.svc.SelectWinner(ctx, []string{"a"})
	assert.ErrorIs(t, err, ErrNoDepositors)

	pool, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Zero(t, pool.RewardPool)
	assert.Zero(t, pool.LastRewardTime)
}

func TestSelectWinnerCandidates(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.deposit(t, "a", 10)
	f.deposit(t, "b", 20)

	_, err := f.svc.SelectWinner(ctx, []string{"a", "ghost"})
	assert.ErrorIs(t, err, ErrUnknownDepositor)

	draw, err := f.svc.SelectWinner(ctx, []string{"b", "b", "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", draw.Winner)
	assert.Equal(t, 1, draw.Candidates)
	assert.Equal(t, uint64(20), draw.TotalWeight)
}

func TestClaim(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)

	_, err := f.svc.Claim(ctx, admin, "a")
	assert.ErrorIs(t, err, ErrNoRewardToClaim)

	f.deposit(t, "a", 10)
	draw, err := f.svc.SelectWinner(ctx, nil)
	require.NoError(t, err)

	_, err = f.svc.Claim(ctx, "mallory", "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	claim, err := f.svc.Claim(ctx, admin, "")
	require.NoError(t, err)
	assert.Equal(t, draw.Winner, claim.Winner)
	assert.Equal(t, models.NativeRewardUnit, claim.Amount)
	require.Len(t, f.mover.payouts, 1)
	assert.Equal(t, payout{admin: admin, winner: "a", amount: models.NativeRewardUnit}, f.mover.payouts[0])

	pool, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Zero(t, pool.RewardPool)

	_, err = f.svc.Claim(ctx, admin, "")
	assert.ErrorIs(t, err, ErrNoRewardToClaim, "claim cannot repeat without a new draw")

	claims, err := f.svc.ListClaims(ctx, 0)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, claim.ID, claims[0].ID)
}

func TestClaimAccumulatedReward(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.deposit(t, "a", 10)

	for i := 0; i < 3; i++ {
		_, err := f.svc.SelectWinner(ctx, nil)
		require.NoError(t, err)
		f.clock.advance(60)
	}

	claim, err := f.svc.Claim(ctx, admin, "a")
	require.NoError(t, err)
	assert.Equal(t, 3*models.NativeRewardUnit, claim.Amount)
}

func TestClaimTransferFailureKeepsReward(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.deposit(t, "a", 10)
	_, err := f.svc.SelectWinner(ctx, nil)
	require.NoError(t, err)

	f.mover.failPayout = errBoom
	_, err = f.svc.Claim(ctx, admin, "a")
	assert.ErrorIs(t, err, ErrTransferFailed)

	pool, err := f.svc.GetPool(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.NativeRewardUnit, pool.RewardPool)
}

func TestYieldVenueErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	f := newInitialized(t)
	f.mover.failCollect = errors.Join(ErrYieldVenue, errBoom)

	_, err := f.svc.Deposit(ctx, "a", 10)
	assert.ErrorIs(t, err, ErrYieldVenue)
	assert.NotErrorIs(t, err, ErrTransferFailed)
}

func TestConcurrentDepositsKeepInvariants(t *testing.T) {
	f := newInitialized(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			who := []string{"a", "b", "c", "d"}[i%4]
			_, err := f.svc.Deposit(context.Background(), who, uint64(i+1))
			assert.NoError(t, err)
			if i%3 == 0 {
				_, _ = f.svc.Withdraw(context.Background(), who, 1)
			}
		}(i)
	}
	wg.Wait()

	f.assertInvariants(t)
}
