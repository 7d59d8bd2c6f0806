package custody

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	defaultBalancesKey = "custody:balances"
	maxWatchRetries    = 16
)

var ErrContention = errors.New("custody ledger contention, retry later")

// redisLedger keeps every balance in one hash and guards multi-field
// updates with WATCH.
type redisLedger struct {
	client *redis.Client
	key    string
}

func NewRedisLedger(client *redis.Client) Ledger {
	return &redisLedger{client: client, key: defaultBalancesKey}
}

func (l *redisLedger) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if err := checkTransfer(from, to, amount); err != nil {
		return err
	}

	return l.watch(ctx, func(tx *redis.Tx) error {
		src, err := balanceOf(ctx, tx, l.key, from)
		if err != nil {
			return err
		}
		if src < amount {
			return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, src, amount)
		}
		if from == to {
			return nil
		}
		dst, err := balanceOf(ctx, tx, l.key, to)
		if err != nil {
			return err
		}
		if dst > MaxAmount-amount {
			return ErrAmountTooLarge
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrBy(ctx, l.key, from, -int64(amount))
			pipe.HIncrBy(ctx, l.key, to, int64(amount))
			return nil
		})
		return err
	})
}

func (l *redisLedger) Credit(ctx context.Context, account string, amount uint64) error {
	if account == "" {
		return ErrInvalidAccount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}

	return l.watch(ctx, func(tx *redis.Tx) error {
		bal, err := balanceOf(ctx, tx, l.key, account)
		if err != nil {
			return err
		}
		if bal > MaxAmount-amount {
			return ErrAmountTooLarge
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrBy(ctx, l.key, account, int64(amount))
			return nil
		})
		return err
	})
}

func (l *redisLedger) Balance(ctx context.Context, account string) (uint64, error) {
	bal, err := l.client.HGet(ctx, l.key, account).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return bal, nil
}

func (l *redisLedger) watch(ctx context.Context, fn func(tx *redis.Tx) error) error {
	for i := 0; i < maxWatchRetries; i++ {
		err := l.client.Watch(ctx, fn, l.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrContention
}

func balanceOf(ctx context.Context, tx *redis.Tx, key, account string) (uint64, error) {
	bal, err := tx.HGet(ctx, key, account).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return bal, nil
}
