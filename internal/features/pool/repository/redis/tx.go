package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"prize-pool-backend/internal/features/pool/models"
	"prize-pool-backend/internal/features/pool/repository"
)

// redisTx stages writes in memory and flushes them in one MULTI/EXEC.
// Isolation comes from the pool lock held by Atomic; the flush only goes
// through while that lock still carries our token.
type redisTx struct {
	ctx    context.Context
	client *redis.Client
	poolID string

	pool     *models.Pool
	deposits map[string]*models.DepositRecord
	staged   []string
	existing map[string]bool
	draws    []*models.Draw
	claims   []*models.Claim
}

func newRedisTx(ctx context.Context, client *redis.Client, poolID string) *redisTx {
	return &redisTx{
		ctx:      ctx,
		client:   client,
		poolID:   poolID,
		deposits: make(map[string]*models.DepositRecord),
		existing: make(map[string]bool),
	}
}

func (tx *redisTx) Pool() (*models.Pool, error) {
	if tx.pool != nil {
		return tx.pool.Clone(), nil
	}
	return loadPool(tx.ctx, tx.client, tx.poolID)
}

func (tx *redisTx) PutPool(pool *models.Pool) {
	tx.pool = pool.Clone()
}

func (tx *redisTx) Deposit(owner string) (*models.DepositRecord, error) {
	if rec, ok := tx.deposits[owner]; ok {
		return rec.Clone(), nil
	}
	rec, err := loadDeposit(tx.ctx, tx.client, tx.poolID, owner)
	if err != nil {
		return nil, err
	}
	tx.existing[owner] = rec != nil
	return rec, nil
}

func (tx *redisTx) PutDeposit(record *models.DepositRecord) {
	if _, ok := tx.deposits[record.Owner]; !ok {
		tx.staged = append(tx.staged, record.Owner)
	}
	tx.deposits[record.Owner] = record.Clone()
}

func (tx *redisTx) Depositors() ([]*models.DepositRecord, error) {
	owners, err := tx.client.LRange(tx.ctx, repository.DepositorsKey(tx.poolID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list depositors: %w", err)
	}

	stored, err := loadDeposits(tx.ctx, tx.client, tx.poolID, owners)
	if err != nil {
		return nil, err
	}

	listed := make(map[string]bool, len(stored))
	out := make([]*models.DepositRecord, 0, len(stored)+len(tx.staged))
	for _, rec := range stored {
		listed[rec.Owner] = true
		tx.existing[rec.Owner] = true
		if staged, ok := tx.deposits[rec.Owner]; ok {
			rec = staged.Clone()
		}
		out = append(out, rec)
	}
	for _, owner := range tx.staged {
		if !listed[owner] {
			out = append(out, tx.deposits[owner].Clone())
		}
	}
	return out, nil
}

func (tx *redisTx) AppendDraw(draw *models.Draw) {
	c := *draw
	tx.draws = append(tx.draws, &c)
}

func (tx *redisTx) AppendClaim(claim *models.Claim) {
	c := *claim
	tx.claims = append(tx.claims, &c)
}

func (tx *redisTx) commit(lockKey, token string) error {
	registered := make([]string, 0, len(tx.staged))
	for _, owner := range tx.staged {
		known, ok := tx.existing[owner]
		if !ok {
			n, err := tx.client.Exists(tx.ctx, repository.DepositKey(tx.poolID, owner)).Result()
			if err != nil {
				return fmt.Errorf("failed to check deposit: %w", err)
			}
			known = n > 0
		}
		if !known {
			registered = append(registered, owner)
		}
	}

	err := tx.client.Watch(tx.ctx, func(rtx *redis.Tx) error {
		owner, err := rtx.Get(tx.ctx, lockKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to check pool lock: %w", err)
		}
		if owner != token {
			return repository.ErrLockLost
		}

		_, err = rtx.TxPipelined(tx.ctx, func(pipe redis.Pipeliner) error {
			return tx.flush(pipe, registered)
		})
		return err
	}, lockKey)
	if errors.Is(err, redis.TxFailedErr) {
		return repository.ErrLockLost
	}
	return err
}

func (tx *redisTx) flush(pipe redis.Pipeliner, registered []string) error {
	if tx.pool != nil {
		data, err := json.Marshal(tx.pool)
		if err != nil {
			return fmt.Errorf("failed to marshal pool: %w", err)
		}
		pipe.Set(tx.ctx, repository.PoolKey(tx.poolID), data, 0)
	}

	for _, owner := range tx.staged {
		data, err := json.Marshal(tx.deposits[owner])
		if err != nil {
			return fmt.Errorf("failed to marshal deposit: %w", err)
		}
		pipe.Set(tx.ctx, repository.DepositKey(tx.poolID, owner), data, 0)
	}

	for _, owner := range registered {
		pipe.RPush(tx.ctx, repository.DepositorsKey(tx.poolID), owner)
	}

	if err := pushHistory(tx.ctx, pipe, repository.DrawsKey(tx.poolID), tx.draws); err != nil {
		return err
	}
	return pushHistory(tx.ctx, pipe, repository.ClaimsKey(tx.poolID), tx.claims)
}

// pushHistory prepends entries so the list stays newest-first.
func pushHistory[T any](ctx context.Context, pipe redis.Pipeliner, key string, items []*T) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal %s entry: %w", key, err)
		}
		pipe.LPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, repository.DefaultHistorySize-1)
	return nil
}
