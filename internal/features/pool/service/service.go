package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/features/pool/models"
	"prize-pool-backend/internal/features/pool/repository"
	"prize-pool-backend/internal/features/pool/vrf"
)

type Settings struct {
	PoolID     string
	Variant    models.Variant
	RewardUnit uint64
	Cooldown   time.Duration
}

type poolService struct {
	repo     repository.PoolRepository
	mover    AssetMover
	clock    Clock
	settings Settings
	now      func() time.Time
}

func NewPoolService(repo repository.PoolRepository, mover AssetMover, clock Clock, settings Settings) PoolService {
	if settings.RewardUnit == 0 {
		settings.RewardUnit = settings.Variant.DefaultRewardUnit()
	}
	return &poolService{
		repo:     repo,
		mover:    mover,
		clock:    clock,
		settings: settings,
		now:      time.Now,
	}
}

func (s *poolService) Initialize(ctx context.Context, admin string) (*models.Pool, error) {
	admin = strings.TrimSpace(admin)
	if admin == "" {
		return nil, ErrInvalidParticipant
	}

	var result *models.Pool
	err := s.repo.Atomic(ctx, s.settings.PoolID, func(ctx context.Context, tx repository.Tx) error {
		existing, err := tx.Pool()
		switch {
		case err == nil:
			if existing.Admin != admin {
				return ErrUnauthorized
			}
			result = existing
			return nil
		case !errors.Is(err, repository.ErrPoolNotFound):
			return err
		}

		now := s.now().UTC()
		pool := &models.Pool{
			ID:        s.settings.PoolID,
			Variant:   s.settings.Variant,
			Version:   models.CurrentVersion,
			Admin:     admin,
			CreatedAt: now,
			UpdatedAt: now,
		}
		tx.PutPool(pool)
		result = pool

		logger.Info().
			Str("pool_id", pool.ID).
			Str("variant", string(pool.Variant)).
			Str("admin", admin).
			Msg("Pool initialized")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *poolService) Deposit(ctx context.Context, participant string, amount uint64) (*models.Receipt, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if participant == "" {
		return nil, ErrInvalidParticipant
	}

	var (
		receipt   *models.Receipt
		collected bool
	)
	err := s.repo.Atomic(ctx, s.settings.PoolID, func(ctx context.Context, tx repository.Tx) error {
		pool, err := s.loadPool(tx)
		if err != nil {
			return err
		}

		rec, err := tx.Deposit(participant)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &models.DepositRecord{Owner: participant}
		}
		if rec.Owner != participant {
			return ErrOwnerMismatch
		}

		if rec.Amount > math.MaxUint64-amount || pool.TotalDeposited > math.MaxUint64-amount {
			return ErrArithmeticOverflow
		}
		if rec.Amount == 0 && pool.TotalDepositors == math.MaxUint32 {
			return ErrArithmeticOverflow
		}

		tick, err := s.clock.Now(ctx)
		if err != nil {
			return err
		}

		if err := s.mover.Collect(ctx, participant, amount); err != nil {
			return transferError(err)
		}
		collected = true

		receipt = s.applyDeposit(tx, pool, rec, amount, tick)
		return nil
	})
	if err != nil {
		if collected {
			return nil, s.refundDeposit(ctx, participant, amount, err)
		}
		return nil, err
	}
	return receipt, nil
}

func (s *poolService) applyDeposit(tx repository.Tx, pool *models.Pool, rec *models.DepositRecord, amount uint64, tick Tick) *models.Receipt {
	before := *pool
	beforeAmount := rec.Amount
	firstDeposit := rec.Amount == 0

	if firstDeposit {
		pool.TotalDepositors++
	}
	rec.Amount += amount
	// deposit time never moves backwards
	if tick.UnixTime > rec.DepositTime {
		rec.DepositTime = tick.UnixTime
	}
	pool.TotalDeposited += amount
	pool.UpdatedAt = s.now().UTC()

	tx.PutDeposit(rec)
	tx.PutPool(pool)

	logger.Info().
		Str("pool_id", pool.ID).
		Str("participant", rec.Owner).
		Uint64("amount", amount).
		Uint64("balance_before", beforeAmount).
		Uint64("balance_after", rec.Amount).
		Uint64("total_deposited_before", before.TotalDeposited).
		Uint64("total_deposited_after", pool.TotalDeposited).
		Uint32("total_depositors", pool.TotalDepositors).
		Bool("first_deposit", firstDeposit).
		Msg("Deposit accepted")

	return &models.Receipt{Participant: rec.Owner, Amount: amount, Deposit: rec, Pool: pool}
}

func (s *poolService) Withdraw(ctx context.Context, participant string, amount uint64) (*models.Receipt, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if participant == "" {
		return nil, ErrInvalidParticipant
	}

	var (
		receipt  *models.Receipt
		released bool
	)
	err := s.repo.Atomic(ctx, s.settings.PoolID, func(ctx context.Context, tx repository.Tx) error {
		pool, rec, err := s.withdrawable(tx, participant, amount)
		if err != nil {
			return err
		}

		if err := s.mover.Release(ctx, participant, amount); err != nil {
			return transferError(err)
		}
		released = true

		receipt = s.applyWithdraw(tx, pool, rec, amount)
		return nil
	})
	if err != nil {
		if released {
			return s.settleWithdraw(ctx, participant, amount, err)
		}
		return nil, err
	}
	return receipt, nil
}

func (s *poolService) withdrawable(tx repository.Tx, participant string, amount uint64) (*models.Pool, *models.DepositRecord, error) {
	pool, err := s.loadPool(tx)
	if err != nil {
		return nil, nil, err
	}

	rec, err := tx.Deposit(participant)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, ErrInsufficientBalance
	}
	if rec.Owner != participant {
		return nil, nil, ErrOwnerMismatch
	}
	if amount > rec.Amount {
		return nil, nil, ErrInsufficientBalance
	}
	if amount > pool.TotalDeposited {
		return nil, nil, ErrArithmeticOverflow
	}
	return pool, rec, nil
}

func (s *poolService) applyWithdraw(tx repository.Tx, pool *models.Pool, rec *models.DepositRecord, amount uint64) *models.Receipt {
	beforeAmount := rec.Amount
	beforeTotal := pool.TotalDeposited

	rec.Amount -= amount
	pool.TotalDeposited -= amount
	if rec.Amount == 0 && pool.TotalDepositors > 0 {
		pool.TotalDepositors--
	}
	pool.UpdatedAt = s.now().UTC()

	tx.PutDeposit(rec)
	tx.PutPool(pool)

	logger.Info().
		Str("pool_id", pool.ID).
		Str("participant", rec.Owner).
		Uint64("amount", amount).
		Uint64("balance_before", beforeAmount).
		Uint64("balance_after", rec.Amount).
		Uint64("total_deposited_before", beforeTotal).
		Uint64("total_deposited_after", pool.TotalDeposited).
		Uint32("total_depositors", pool.TotalDepositors).
		Msg("Withdrawal completed")

	return &models.Receipt{Participant: rec.Owner, Amount: amount, Deposit: rec, Pool: pool}
}

func (s *poolService) SelectWinner(ctx context.Context, candidates []string) (*models.Draw, error) {
	var draw *models.Draw
	err := s.repo.Atomic(ctx, s.settings.PoolID, func(ctx context.Context, tx repository.Tx) error {
		pool, err := s.loadPool(tx)
		if err != nil {
			return err
		}

		if pool.TotalDepositors == 0 {
			return ErrNoDepositors
		}

		// read under the pool lock so ticks commit in order
		tick, err := s.clock.Now(ctx)
		if err != nil {
			return err
		}
		if !s.cooldownElapsed(pool, tick) {
			return ErrVrf
		}

		weighted, err := s.candidates(tx, candidates)
		if err != nil {
			return err
		}
		if len(weighted) == 0 {
			return ErrNoDepositors
		}

		entropy := vrf.Entropy{
			UnixTime:        tick.UnixTime,
			Slot:            tick.Slot,
			Epoch:           tick.Epoch,
			TotalDeposited:  pool.TotalDeposited,
			TotalDepositors: pool.TotalDepositors,
		}
		seed := vrf.Mix(entropy)

		sel, err := vrf.Select(seed, weighted)
		if err != nil {
			if errors.Is(err, vrf.ErrWeightOverflow) {
				return ErrArithmeticOverflow
			}
			return err
		}

		if pool.RewardPool > math.MaxUint64-s.settings.RewardUnit {
			return ErrArithmeticOverflow
		}
		rewardBefore := pool.RewardPool
		pool.RewardPool += s.settings.RewardUnit
		pool.LastRewardTime = tick.UnixTime
		pool.LastWinner = sel.Winner.ID
		pool.UpdatedAt = s.now().UTC()

		draw = &models.Draw{
			ID:              uuid.NewString(),
			PoolID:          pool.ID,
			Winner:          sel.Winner.ID,
			WinnerIndex:     sel.Index,
			WinnerWeight:    sel.Winner.Weight,
			Candidates:      len(weighted),
			Seed:            seed,
			Target:          sel.Target,
			TotalWeight:     sel.TotalWeight,
			UnixTime:        tick.UnixTime,
			Slot:            tick.Slot,
			Epoch:           tick.Epoch,
			TotalDeposited:  pool.TotalDeposited,
			TotalDepositors: pool.TotalDepositors,
			Reward:          s.settings.RewardUnit,
			RewardPool:      pool.RewardPool,
			SelectedAt:      pool.UpdatedAt,
		}

		tx.PutPool(pool)
		tx.AppendDraw(draw)

		logger.Info().
			Str("pool_id", pool.ID).
			Str("draw_id", draw.ID).
			Str("winner", draw.Winner).
			Int("candidates", draw.Candidates).
			Int64("seed", seed).
			Uint64("target", sel.Target).
			Uint64("total_weight", sel.TotalWeight).
			Uint64("reward_pool_before", rewardBefore).
			Uint64("reward_pool_after", pool.RewardPool).
			Msg("Winner selected")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return draw, nil
}

func (s *poolService) cooldownElapsed(pool *models.Pool, tick Tick) bool {
	cooldown := int64(s.settings.Cooldown / time.Second)
	// last_reward_time is non-decreasing even without a cooldown
	if cooldown < 0 {
		cooldown = 0
	}
	if pool.LastRewardTime > math.MaxInt64-cooldown {
		return false
	}
	return tick.UnixTime >= pool.LastRewardTime+cooldown
}

// candidates resolves the ordered, de-duplicated set of live depositors.
func (s *poolService) candidates(tx repository.Tx, requested []string) ([]vrf.Candidate, error) {
	var records []*models.DepositRecord

	if len(requested) == 0 {
		all, err := tx.Depositors()
		if err != nil {
			return nil, err
		}
		records = all
	} else {
		seen := make(map[string]struct{}, len(requested))
		for _, id := range requested {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			rec, err := tx.Deposit(id)
			if err != nil {
				return nil, err
			}
			if rec == nil {
				return nil, fmt.Errorf("%w: %s", ErrUnknownDepositor, id)
			}
			records = append(records, rec)
		}
	}

	out := make([]vrf.Candidate, 0, len(records))
	for _, rec := range records {
		if rec.Amount > 0 {
			out = append(out, vrf.Candidate{ID: rec.Owner, Weight: rec.Amount})
		}
	}
	return out, nil
}

func (s *poolService) Claim(ctx context.Context, authorizer, winner string) (*models.Claim, error) {
	var (
		claim  *models.Claim
		amount uint64
		paid   bool
	)
	err := s.repo.Atomic(ctx, s.settings.PoolID, func(ctx context.Context, tx repository.Tx) error {
		pool, err := s.loadPool(tx)
		if err != nil {
			return err
		}
		if authorizer == "" || authorizer != pool.Admin {
			return ErrUnauthorized
		}
		if pool.RewardPool == 0 {
			return ErrNoRewardToClaim
		}

		if winner == "" {
			winner = pool.LastWinner
		}
		if winner == "" {
			return ErrInvalidParticipant
		}

		amount = pool.RewardPool
		if err := s.mover.Payout(ctx, pool.Admin, winner, amount); err != nil {
			return transferError(err)
		}
		paid = true

		claim = s.applyClaim(tx, pool, authorizer, winner, amount)
		return nil
	})
	if err != nil {
		if paid {
			return s.settleClaim(ctx, authorizer, winner, amount, err)
		}
		return nil, err
	}
	return claim, nil
}

func (s *poolService) applyClaim(tx repository.Tx, pool *models.Pool, authorizer, winner string, amount uint64) *models.Claim {
	rewardBefore := pool.RewardPool
	if amount > pool.RewardPool {
		logger.Error().
			Str("pool_id", pool.ID).
			Uint64("amount", amount).
			Uint64("reward_pool", pool.RewardPool).
			Msg("Claim exceeds the recorded reward pool")
		amount = pool.RewardPool
	}
	pool.RewardPool -= amount
	pool.UpdatedAt = s.now().UTC()

	claim := &models.Claim{
		ID:         uuid.NewString(),
		PoolID:     pool.ID,
		Winner:     winner,
		Authorizer: authorizer,
		Amount:     amount,
		ClaimedAt:  pool.UpdatedAt,
	}

	tx.PutPool(pool)
	tx.AppendClaim(claim)

	logger.Info().
		Str("pool_id", pool.ID).
		Str("claim_id", claim.ID).
		Str("winner", winner).
		Uint64("amount", amount).
		Uint64("reward_pool_before", rewardBefore).
		Uint64("reward_pool_after", pool.RewardPool).
		Msg("Reward claimed")
	return claim
}

func (s *poolService) GetPool(ctx context.Context) (*models.Pool, error) {
	pool, err := s.repo.GetPool(ctx, s.settings.PoolID)
	if err != nil {
		if errors.Is(err, repository.ErrPoolNotFound) {
			return nil, ErrPoolNotInitialized
		}
		return nil, err
	}
	return pool, nil
}

// GetDeposit returns a zero-amount record for participants that never deposited.
func (s *poolService) GetDeposit(ctx context.Context, participant string) (*models.DepositRecord, error) {
	if participant == "" {
		return nil, ErrInvalidParticipant
	}
	rec, err := s.repo.GetDeposit(ctx, s.settings.PoolID, participant)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &models.DepositRecord{Owner: participant}, nil
	}
	return rec, nil
}

func (s *poolService) ListDeposits(ctx context.Context) ([]*models.DepositRecord, error) {
	return s.repo.ListDeposits(ctx, s.settings.PoolID)
}

func (s *poolService) ListDraws(ctx context.Context, limit int) ([]*models.Draw, error) {
	return s.repo.ListDraws(ctx, s.settings.PoolID, limit)
}

func (s *poolService) ListClaims(ctx context.Context, limit int) ([]*models.Claim, error) {
	return s.repo.ListClaims(ctx, s.settings.PoolID, limit)
}

func (s *poolService) loadPool(tx repository.Tx) (*models.Pool, error) {
	pool, err := tx.Pool()
	if err != nil {
		if errors.Is(err, repository.ErrPoolNotFound) {
			return nil, ErrPoolNotInitialized
		}
		return nil, err
	}
	return pool, nil
}

func transferError(err error) error {
	if errors.Is(err, ErrYieldVenue) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransferFailed, err)
}
