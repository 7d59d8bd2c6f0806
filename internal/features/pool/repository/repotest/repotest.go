// Package repotest holds behaviour checks shared by every PoolRepository
// implementation.
package repotest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prize-pool-backend/internal/features/pool/models"
	"prize-pool-backend/internal/features/pool/repository"
)

const poolID = "test_pool"

var errAbort = errors.New("abort")

// Run exercises repo against the PoolRepository contract.
func Run(t *testing.T, newRepo func(t *testing.T) repository.PoolRepository) {
	t.Run("missing pool", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.GetPool(ctx, poolID)
		assert.ErrorIs(t, err, repository.ErrPoolNotFound)

		err = repo.Atomic(ctx, poolID, func(ctx context.Context, tx repository.Tx) error {
			_, err := tx.Pool()
			return err
		})
		assert.ErrorIs(t, err, repository.ErrPoolNotFound)

		rec, err := repo.GetDeposit(ctx, poolID, "alice")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("commit makes writes visible", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		err := repo.Atomic(ctx, poolID, func(ctx context.Context, tx repository.Tx) error {
			tx.PutPool(&models.Pool{ID: poolID, Admin: "admin", TotalDeposited: 15, TotalDepositors: 2})
			tx.PutDeposit(&models.DepositRecord{Owner: "bob", Amount: 10, DepositTime: 1})
			tx.PutDeposit(&models.DepositRecord{Owner: "alice", Amount: 5, DepositTime: 2})

			staged, err := tx.Pool()
			require.NoError(t, err)
			assert.Equal(t, uint64(15), staged.TotalDeposited)

			rec, err := tx.Deposit("bob")
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, uint64(10), rec.Amount)
			return nil
		})
		require.NoError(t, err)

		pool, err := repo.GetPool(ctx, poolID)
		require.NoError(t, err)
		assert.Equal(t, "admin", pool.Admin)
		assert.Equal(t, uint32(2), pool.TotalDepositors)

		deposits, err := repo.ListDeposits(ctx, poolID)
		require.NoError(t, err)
		require.Len(t, deposits, 2)
		assert.Equal(t, "bob", deposits[0].Owner)
		assert.Equal(t, "alice", deposits[1].Owner)
	})

	t.Run("error discards staged writes", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		err := repo.Atomic(ctx, poolID, func(ctx context.Context, tx repository.Tx) error {
			tx.PutPool(&models.Pool{ID: poolID, Admin: "admin"})
			tx.PutDeposit(&models.DepositRecord{Owner: "alice", Amount: 5})
			tx.AppendDraw(&models.Draw{ID: "d1", Winner: "alice"})
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		_, err = repo.GetPool(ctx, poolID)
		assert.ErrorIs(t, err, repository.ErrPoolNotFound)

		deposits, err := repo.ListDeposits(ctx, poolID)
		require.NoError(t, err)
		assert.Empty(t, deposits)

		draws, err := repo.ListDraws(ctx, poolID, 10)
		require.NoError(t, err)
		assert.Empty(t, draws)
	})

	t.Run("depositors keep first deposit order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		put := func(owner string, amount uint64) {
			err := repo.Atomic(ctx, poolID, func(ctx context.Context, tx repository.Tx) error {
				rec, err := tx.Deposit(owner)
				if err != nil {
					return err
				}
				if rec == nil {
					rec = &models.DepositRecord{Owner: owner}
				}
				rec.Amount = amount
				tx.PutDeposit(rec)
				return nil
			})
			require.NoError(t, err)
		}

		put("carol", 3)
		put("alice", 1)
		put("carol", 0)
		put("bob", 2)
		put("carol", 9)

		err := repo.Atomic(ctx, poolID, func(ctx context.Context, tx repository.Tx) error {
			tx.PutDeposit(&models.DepositRecord{Owner: "dave", Amount: 4})
			tx.PutDeposit(&models.DepositRecord{Owner: "alice", Amount: 7})

			all, err := tx.Depositors()
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, []string{"carol", "alice", "bob", "dave"}, owners(all))
			assert.Equal(t, uint64(7), all[1].Amount)
			return nil
		})
		require.NoError(t, err)

		deposits, err := repo.ListDeposits(ctx, poolID)
		require.NoError(t, err)
		assert.Equal(t, []string{"carol", "alice", "bob", "dave"}, owners(deposits))
		assert.Equal(t, uint64(9), deposits[0].Amount)
	})

	t.Run("history is newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, id := range []string{"d1", "d2", "d3"} {
			id := id
			err := repo.Atomic(ctx, poolID, func(ctx context.Context, tx repository.Tx) error {
				tx.AppendDraw(&models.Draw{ID: id, Winner: "alice"})
				tx.AppendClaim(&models.Claim{ID: "c-" + id, Winner: "alice", Amount: 1})
				return nil
			})
			require.NoError(t, err)
		}

		draws, err := repo.ListDraws(ctx, poolID, 2)
		require.NoError(t, err)
		require.Len(t, draws, 2)
		assert.Equal(t, "d3", draws[0].ID)
		assert.Equal(t, "d2", draws[1].ID)

		claims, err := repo.ListClaims(ctx, poolID, 0)
		require.NoError(t, err)
		require.Len(t, claims, 3)
		assert.Equal(t, "c-d3", claims[0].ID)
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := newRepo(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := repo.Atomic(ctx, poolID, func(ctx context.Context, tx repository.Tx) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
	})
}

func owners(records []*models.DepositRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Owner
	}
	return out
}
